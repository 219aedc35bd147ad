package repository

import "time"

// UserListFilter 查询身份列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	BannedAt    *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	ActiveFrom  *time.Time
	ActiveTo    *time.Time
}
