package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/anonic-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPendingTargetRepositoryTest(t *testing.T) (*GormPendingTargetRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:pending_target_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PendingTarget{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPendingTargetRepository(db), db
}

func TestPendingTargetRepositoryUpsertKeepsOnePerSender(t *testing.T) {
	repo, db := setupPendingTargetRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := models.PendingTarget{
		SenderPeerID: 101,
		TargetPeerID: 201,
		ExpiresAt:    now.Add(5 * time.Minute),
		CreatedAt:    now,
	}
	if err := repo.Upsert(&first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := models.PendingTarget{
		SenderPeerID: 101,
		TargetPeerID: 202,
		ExpiresAt:    now.Add(10 * time.Minute),
		CreatedAt:    now.Add(time.Minute),
	}
	if err := repo.Upsert(&second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.PendingTarget{}).Where("sender_peer_id = ?", 101).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("pending target per sender want 1 got %d", count)
	}

	stored, err := repo.GetBySender(101)
	if err != nil {
		t.Fatalf("get by sender failed: %v", err)
	}
	if stored == nil || stored.TargetPeerID != 202 {
		t.Fatalf("upsert must keep latest target, got %+v", stored)
	}
}

func TestPendingTargetRepositoryConditionalDelete(t *testing.T) {
	repo, _ := setupPendingTargetRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	target := models.PendingTarget{
		SenderPeerID: 301,
		TargetPeerID: 401,
		ExpiresAt:    now.Add(5 * time.Minute),
		CreatedAt:    now,
	}
	if err := repo.Upsert(&target); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	ok, err := repo.DeleteBySenderAndTarget(301, 999)
	if err != nil {
		t.Fatalf("conditional delete failed: %v", err)
	}
	if ok {
		t.Fatalf("delete must miss when target differs")
	}

	ok, err = repo.DeleteBySenderAndTarget(301, 401)
	if err != nil {
		t.Fatalf("conditional delete failed: %v", err)
	}
	if !ok {
		t.Fatalf("delete want success on matching target")
	}

	ok, err = repo.DeleteBySenderAndTarget(301, 401)
	if err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
	if ok {
		t.Fatalf("repeat delete must report no rows")
	}
}

func TestPendingTargetRepositoryListExpired(t *testing.T) {
	repo, _ := setupPendingTargetRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	rows := []models.PendingTarget{
		{SenderPeerID: 501, TargetPeerID: 601, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-6 * time.Minute)},
		{SenderPeerID: 502, TargetPeerID: 602, ExpiresAt: now.Add(-time.Second), CreatedAt: now.Add(-5 * time.Minute)},
		{SenderPeerID: 503, TargetPeerID: 603, ExpiresAt: now.Add(4 * time.Minute), CreatedAt: now.Add(-time.Minute)},
	}
	for i := range rows {
		if err := repo.Upsert(&rows[i]); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	expired, err := repo.ListExpired(now, 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expired len want 2 got %d", len(expired))
	}

	ids := make([]uint, 0, len(expired))
	for _, row := range expired {
		ids = append(ids, row.ID)
	}
	deleted, err := repo.DeleteByIDs(ids)
	if err != nil {
		t.Fatalf("delete by ids failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted want 2 got %d", deleted)
	}

	remain, err := repo.GetBySender(503)
	if err != nil {
		t.Fatalf("get remaining failed: %v", err)
	}
	if remain == nil {
		t.Fatalf("unexpired target must survive sweep")
	}
}
