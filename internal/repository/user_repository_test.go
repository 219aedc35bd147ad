package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/anonic-next/internal/constants"
	"github.com/anonic-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserRepositoryTest(t *testing.T) (*GormUserRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.IdentityRevocation{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewUserRepository(db), db
}

func TestUserRepositoryLookups(t *testing.T) {
	repo, _ := setupUserRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	user := models.User{
		PeerID:    7001,
		Token:     "a1b2c3d4e",
		Nickname:  "Silent Falcon",
		ShortCode: "k3xq9m2a",
		Status:    constants.IdentityStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(&user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	byPeer, err := repo.GetByPeerID(7001)
	if err != nil {
		t.Fatalf("get by peer failed: %v", err)
	}
	if byPeer == nil || byPeer.ID != user.ID {
		t.Fatalf("get by peer mismatch: %+v", byPeer)
	}

	byToken, err := repo.GetByToken("a1b2c3d4e")
	if err != nil {
		t.Fatalf("get by token failed: %v", err)
	}
	if byToken == nil || byToken.PeerID != 7001 {
		t.Fatalf("get by token mismatch: %+v", byToken)
	}

	byCode, err := repo.GetByShortCode("k3xq9m2a")
	if err != nil {
		t.Fatalf("get by short code failed: %v", err)
	}
	if byCode == nil || byCode.PeerID != 7001 {
		t.Fatalf("get by short code mismatch: %+v", byCode)
	}

	missing, err := repo.GetByToken("no-such-token")
	if err != nil {
		t.Fatalf("get missing token failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing token must return nil, got %+v", missing)
	}
}

func TestUserRepositoryCountersAndTouch(t *testing.T) {
	repo, _ := setupUserRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	user := models.User{
		PeerID:    7002,
		Token:     "t-counter",
		Nickname:  "Quiet Otter",
		ShortCode: "c0unt3rx",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(&user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if err := repo.IncrMessagesSent(7002); err != nil {
		t.Fatalf("incr sent failed: %v", err)
	}
	if err := repo.IncrMessagesSent(7002); err != nil {
		t.Fatalf("incr sent failed: %v", err)
	}
	if err := repo.IncrMessagesReceived(7002); err != nil {
		t.Fatalf("incr received failed: %v", err)
	}
	if err := repo.IncrReports(7002); err != nil {
		t.Fatalf("incr reports failed: %v", err)
	}
	touchAt := now.Add(time.Minute)
	if err := repo.Touch(7002, touchAt); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	stored, err := repo.GetByPeerID(7002)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if stored.MessagesSent != 2 || stored.MessagesReceived != 1 || stored.Reports != 1 {
		t.Fatalf("counters mismatch: %+v", stored)
	}
	if stored.LastActivityAt == nil || !stored.LastActivityAt.Equal(touchAt) {
		t.Fatalf("last_activity_at mismatch: %v", stored.LastActivityAt)
	}
}

func TestUserRepositoryListAndStats(t *testing.T) {
	repo, _ := setupUserRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	bannedUntil := now.Add(time.Hour)
	active := now.Add(-time.Minute)
	stale := now.Add(-48 * time.Hour)

	users := []models.User{
		{PeerID: 8001, Token: "t-8001", Nickname: "Misty Heron", ShortCode: "s8001xxx", LastActivityAt: &active, CreatedAt: now, UpdatedAt: now},
		{PeerID: 8002, Token: "t-8002", Nickname: "Dusty Crow", ShortCode: "s8002xxx", BannedUntil: &bannedUntil, LastActivityAt: &stale, CreatedAt: now, UpdatedAt: now},
		{PeerID: 8003, Token: "t-8003", Nickname: "Pale Lynx", ShortCode: "s8003xxx", BanForever: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range users {
		if err := repo.Create(&users[i]); err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	rows, total, err := repo.List(UserListFilter{Page: 1, PageSize: 10, Keyword: "heron"})
	if err != nil {
		t.Fatalf("list by keyword failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].PeerID != 8001 {
		t.Fatalf("keyword filter mismatch: total=%d rows=%+v", total, rows)
	}

	banned, err := repo.CountBanned(now)
	if err != nil {
		t.Fatalf("count banned failed: %v", err)
	}
	if banned != 2 {
		t.Fatalf("banned count want 2 got %d", banned)
	}

	recent, err := repo.CountActiveSince(now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count active failed: %v", err)
	}
	if recent != 1 {
		t.Fatalf("active count want 1 got %d", recent)
	}
}

func TestUserRepositoryRevocations(t *testing.T) {
	repo, _ := setupUserRepositoryTest(t)

	if err := repo.CreateRevocation(&models.IdentityRevocation{
		PeerID:      9001,
		OldToken:    "t-old-1",
		OldNickname: "Faded Owl",
	}); err != nil {
		t.Fatalf("create revocation failed: %v", err)
	}
	if err := repo.CreateRevocation(&models.IdentityRevocation{
		PeerID:      9001,
		OldToken:    "t-old-2",
		OldNickname: "Faded Owl II",
	}); err != nil {
		t.Fatalf("create revocation failed: %v", err)
	}

	rows, err := repo.ListRevocations(9001)
	if err != nil {
		t.Fatalf("list revocations failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("revocations len want 2 got %d", len(rows))
	}
	if rows[0].OldToken != "t-old-2" {
		t.Fatalf("revocations must be newest first, got %+v", rows[0])
	}
}
