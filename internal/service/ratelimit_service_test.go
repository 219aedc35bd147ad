package service

import (
	"testing"
	"time"
)

func TestRateLimitServiceCountsPerPair(t *testing.T) {
	svc := NewRateLimitService(time.Minute)
	now := time.Now()

	for i := 1; i <= 5; i++ {
		if got := svc.RecordAndCheck(1, 2, now.Add(time.Duration(i)*time.Second)); got != i {
			t.Fatalf("count want %d got %d", i, got)
		}
	}

	// 不同目标各自独立计数
	if got := svc.RecordAndCheck(1, 3, now.Add(6*time.Second)); got != 1 {
		t.Fatalf("other pair count want 1 got %d", got)
	}
	if got := svc.RecordAndCheck(2, 1, now.Add(7*time.Second)); got != 1 {
		t.Fatalf("reverse pair count want 1 got %d", got)
	}
}

func TestRateLimitServiceWindowSlides(t *testing.T) {
	svc := NewRateLimitService(time.Minute)
	now := time.Now()

	for i := 0; i < 10; i++ {
		svc.RecordAndCheck(7, 8, now.Add(time.Duration(i)*time.Second))
	}

	// 窗口外的记录全部过期，计数重新从 1 开始
	if got := svc.RecordAndCheck(7, 8, now.Add(2*time.Minute)); got != 1 {
		t.Fatalf("count after window want 1 got %d", got)
	}

	// 窗口边缘：59 秒前的记录仍在窗口内
	svc2 := NewRateLimitService(time.Minute)
	svc2.RecordAndCheck(7, 8, now)
	if got := svc2.RecordAndCheck(7, 8, now.Add(59*time.Second)); got != 2 {
		t.Fatalf("count inside window want 2 got %d", got)
	}
}

func TestRateLimitServiceReset(t *testing.T) {
	svc := NewRateLimitService(time.Minute)
	now := time.Now()

	svc.RecordAndCheck(11, 21, now)
	svc.RecordAndCheck(11, 22, now)
	svc.RecordAndCheck(12, 21, now)

	svc.Reset(11)

	if got := svc.RecordAndCheck(11, 21, now.Add(time.Second)); got != 1 {
		t.Fatalf("count after reset want 1 got %d", got)
	}
	if got := svc.RecordAndCheck(12, 21, now.Add(time.Second)); got != 2 {
		t.Fatalf("other sender must keep history, want 2 got %d", got)
	}
}

func TestRateLimitServicePruneIdle(t *testing.T) {
	svc := NewRateLimitService(time.Minute)
	now := time.Now()

	svc.RecordAndCheck(31, 41, now.Add(-2*time.Minute))
	svc.RecordAndCheck(32, 42, now)

	if pruned := svc.PruneIdle(now); pruned != 1 {
		t.Fatalf("pruned want 1 got %d", pruned)
	}
	if got := svc.RecordAndCheck(32, 42, now.Add(time.Second)); got != 2 {
		t.Fatalf("live pair must survive prune, want 2 got %d", got)
	}
}
