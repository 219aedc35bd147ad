package service

import (
	"sync"
	"time"
)

type rateKey struct {
	sender int64
	target int64
}

// RateLimitService 发送频率度量
//
// 按 (发送方, 目标) 维护 60 秒滑动窗口的时间戳列表，只负责计数，
// 封禁阈值等策略判断留给路由引擎。
type RateLimitService struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[rateKey][]time.Time
}

// NewRateLimitService 创建频率度量服务
func NewRateLimitService(window time.Duration) *RateLimitService {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitService{
		window:  window,
		entries: make(map[rateKey][]time.Time),
	}
}

// RecordAndCheck 追加一次发送并返回窗口内计数
func (s *RateLimitService) RecordAndCheck(senderPeerID, targetPeerID int64, now time.Time) int {
	key := rateKey{sender: senderPeerID, target: targetPeerID}
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := s.entries[key]
	kept := stamps[:0]
	for _, stamp := range stamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	kept = append(kept, now)
	s.entries[key] = kept
	return len(kept)
}

// Reset 清空某发送方的全部窗口（解封时调用）
func (s *RateLimitService) Reset(senderPeerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.sender == senderPeerID {
			delete(s.entries, key)
		}
	}
}

// PruneIdle 丢弃窗口内已无记录的键，返回清理条数
func (s *RateLimitService) PruneIdle(now time.Time) int {
	cutoff := now.Add(-s.window)
	pruned := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, stamps := range s.entries {
		live := false
		for _, stamp := range stamps {
			if stamp.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(s.entries, key)
			pruned++
		}
	}
	return pruned
}
