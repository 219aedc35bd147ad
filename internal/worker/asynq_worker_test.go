package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/anonic-next/internal/config"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/provider"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/repository"
	"github.com/anonic-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type captureNotifier struct {
	events []service.NotifyEvent
	peers  []int64
}

func (n *captureNotifier) Notify(ctx context.Context, peerID int64, event service.NotifyEvent) error {
	n.peers = append(n.peers, peerID)
	n.events = append(n.events, event)
	return nil
}

type captureReporter struct {
	senders []int64
}

func (r *captureReporter) ReportAbuse(ctx context.Context, senderPeerID, targetPeerID int64, messageCount int) error {
	r.senders = append(r.senders, senderPeerID)
	return nil
}

func setupWorkerTest(t *testing.T) (*provider.Container, *captureNotifier, *captureReporter, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PendingTarget{},
		&models.MessageRoute{},
		&models.TempLink{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	notifier := &captureNotifier{}
	reporter := &captureReporter{}
	cfg := &config.Config{}
	cfg.Relay.PendingSweepSeconds = 60
	cfg.Relay.RoutePruneMinutes = 60
	container := &provider.Container{
		Config:           cfg,
		UserRepo:         repository.NewUserRepository(db),
		PendingRepo:      repository.NewPendingTargetRepository(db),
		RouteRepo:        repository.NewMessageRouteRepository(db),
		LinkRepo:         repository.NewTempLinkRepository(db),
		RateLimitService: service.NewRateLimitService(time.Minute),
		Notifier:         notifier,
		Reporter:         reporter,
	}
	return container, notifier, reporter, db
}

func TestConsumerHandleSessionExpired(t *testing.T) {
	container, notifier, _, _ := setupWorkerTest(t)
	consumer := NewConsumer(container)

	payload, err := json.Marshal(queue.SessionExpiredPayload{PeerID: 701, PeerNickname: "Silent Fox"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskSessionExpired, payload)
	if err := consumer.handleSessionExpired(context.Background(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(notifier.peers) != 1 || notifier.peers[0] != 701 {
		t.Fatalf("notify peers mismatch: %+v", notifier.peers)
	}
	if notifier.events[0].Kind != service.NotifyEventSessionExpired || notifier.events[0].PeerNickname != "Silent Fox" {
		t.Fatalf("notify event mismatch: %+v", notifier.events[0])
	}

	// 残缺负载静默跳过，不进入重试
	empty, err := json.Marshal(queue.SessionExpiredPayload{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := consumer.handleSessionExpired(context.Background(), asynq.NewTask(queue.TaskSessionExpired, empty)); err != nil {
		t.Fatalf("empty payload must be skipped, got: %v", err)
	}
	if len(notifier.peers) != 1 {
		t.Fatalf("empty payload must not notify")
	}
}

func TestConsumerHandleAbuseReport(t *testing.T) {
	container, _, reporter, _ := setupWorkerTest(t)
	consumer := NewConsumer(container)

	payload, err := json.Marshal(queue.AbuseReportPayload{
		SenderPeerID: 702,
		TargetPeerID: 703,
		MessageCount: 61,
		BanHours:     24,
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := consumer.handleAbuseReport(context.Background(), asynq.NewTask(queue.TaskAbuseReport, payload)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(reporter.senders) != 1 || reporter.senders[0] != 702 {
		t.Fatalf("report senders mismatch: %+v", reporter.senders)
	}
}

func TestConsumerHandleIdentityRevoked(t *testing.T) {
	container, notifier, _, _ := setupWorkerTest(t)
	consumer := NewConsumer(container)

	payload, err := json.Marshal(queue.IdentityRevokedPayload{PeerID: 704, NewNickname: "Fresh Lark"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := consumer.handleIdentityRevoked(context.Background(), asynq.NewTask(queue.TaskIdentityRevoked, payload)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0].Kind != service.NotifyEventIdentityRotated {
		t.Fatalf("notify event mismatch: %+v", notifier.events)
	}
	if notifier.events[0].PeerNickname != "Fresh Lark" {
		t.Fatalf("new nickname must be forwarded, got %+v", notifier.events[0])
	}
}

func TestJanitorSweepExpiredPending(t *testing.T) {
	container, notifier, _, db := setupWorkerTest(t)
	janitor, err := NewJanitor(container)
	if err != nil {
		t.Fatalf("new janitor failed: %v", err)
	}

	now := time.Now()
	users := []models.User{
		{PeerID: 801, Token: "a1b2c3d4e", Nickname: "Quiet Owl", ShortCode: "owl00001", Status: "active"},
		{PeerID: 802, Token: "f5g6h7i8j", Nickname: "Night Crow", ShortCode: "crow0001", Status: "active"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}
	if err := container.PendingRepo.Upsert(&models.PendingTarget{
		SenderPeerID: 801,
		TargetPeerID: 802,
		ExpiresAt:    now.Add(-time.Minute),
		CreatedAt:    now.Add(-6 * time.Minute),
	}); err != nil {
		t.Fatalf("seed pending failed: %v", err)
	}
	if err := container.PendingRepo.Upsert(&models.PendingTarget{
		SenderPeerID: 803,
		TargetPeerID: 804,
		ExpiresAt:    now.Add(4 * time.Minute),
		CreatedAt:    now,
	}); err != nil {
		t.Fatalf("seed live pending failed: %v", err)
	}

	janitor.sweepExpiredPending(context.Background())

	if len(notifier.peers) != 2 {
		t.Fatalf("both parties must be notified, got %+v", notifier.peers)
	}
	if notifier.peers[0] != 801 || notifier.events[0].PeerNickname != "Night Crow" {
		t.Fatalf("sender notification mismatch: %d %+v", notifier.peers[0], notifier.events[0])
	}
	if notifier.peers[1] != 802 || notifier.events[1].PeerNickname != "Quiet Owl" {
		t.Fatalf("target notification mismatch: %d %+v", notifier.peers[1], notifier.events[1])
	}

	gone, err := container.PendingRepo.GetBySender(801)
	if err != nil {
		t.Fatalf("get pending failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expired pending must be deleted")
	}
	alive, err := container.PendingRepo.GetBySender(803)
	if err != nil {
		t.Fatalf("get pending failed: %v", err)
	}
	if alive == nil {
		t.Fatalf("live pending must survive the sweep")
	}
}

func TestJanitorPruneRoutes(t *testing.T) {
	container, _, _, _ := setupWorkerTest(t)
	janitor, err := NewJanitor(container)
	if err != nil {
		t.Fatalf("new janitor failed: %v", err)
	}

	now := time.Now()
	if err := container.RouteRepo.Create(&models.MessageRoute{
		EnvelopeID:     "env-old",
		SenderPeerID:   901,
		ReceiverPeerID: 902,
		ExpiresAt:      now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("create old route failed: %v", err)
	}
	if err := container.RouteRepo.Create(&models.MessageRoute{
		EnvelopeID:     "env-new",
		SenderPeerID:   901,
		ReceiverPeerID: 902,
		ExpiresAt:      now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create live route failed: %v", err)
	}

	janitor.pruneRoutes()

	old, err := container.RouteRepo.GetByEnvelopeID("env-old")
	if err != nil {
		t.Fatalf("get route failed: %v", err)
	}
	if old != nil {
		t.Fatalf("expired route must be pruned")
	}
	live, err := container.RouteRepo.GetByEnvelopeID("env-new")
	if err != nil {
		t.Fatalf("get route failed: %v", err)
	}
	if live == nil {
		t.Fatalf("route inside retention must survive")
	}
}
