package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupLinkServiceTest(t *testing.T) (*LinkService, *RegistryService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:link_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Block{},
		&models.TempLink{},
		&models.MessageRoute{},
		&models.PendingTarget{},
		&models.IdentityRevocation{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewTempLinkRepository(db)
	registry := NewRegistryService(userRepo, linkRepo, repository.NewBlockRepository(db), repository.NewMessageRouteRepository(db), repository.NewPendingTargetRepository(db), 7)
	return NewLinkService(linkRepo, userRepo, 1, 24, 3), registry, db
}

func TestLinkServiceIssueDefaults(t *testing.T) {
	svc, registry, _ := setupLinkServiceTest(t)
	if _, err := registry.GetOrCreate(3001); err != nil {
		t.Fatalf("create owner failed: %v", err)
	}

	link, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3001})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if link.Code == "" {
		t.Fatalf("issued link must carry a code")
	}
	if link.MaxUses != 1 {
		t.Fatalf("default max uses want 1 got %d", link.MaxUses)
	}
	if link.ExpiresAt == nil || time.Until(*link.ExpiresAt) > 25*time.Hour {
		t.Fatalf("default expiry out of range: %+v", link.ExpiresAt)
	}

	if _, err := svc.Issue(IssueLinkInput{OwnerPeerID: 9999}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown owner expected ErrUserNotFound, got: %v", err)
	}
}

func TestLinkServiceIssueQuota(t *testing.T) {
	svc, registry, _ := setupLinkServiceTest(t)
	if _, err := registry.GetOrCreate(3002); err != nil {
		t.Fatalf("create owner failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3002}); err != nil {
			t.Fatalf("issue %d failed: %v", i, err)
		}
	}
	if _, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3002}); !errors.Is(err, ErrLinkQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got: %v", err)
	}

	// 吊销释放配额
	links, err := svc.ListActive(3002)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if err := svc.Revoke(links[0].Code, 3002); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3002}); err != nil {
		t.Fatalf("issue after revoke failed: %v", err)
	}
}

func TestLinkServiceResolveAndConsume(t *testing.T) {
	svc, registry, _ := setupLinkServiceTest(t)
	owner, err := registry.GetOrCreate(3003)
	if err != nil {
		t.Fatalf("create owner failed: %v", err)
	}

	uses := 1
	link, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3003, MaxUses: &uses})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	resolvedOwner, resolved, err := svc.Resolve(link.Code)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolvedOwner.PeerID != owner.PeerID || resolved.Code != link.Code {
		t.Fatalf("resolve mismatch: %+v / %+v", resolvedOwner, resolved)
	}

	if err := svc.Consume(link.Code); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := svc.Consume(link.Code); !errors.Is(err, ErrLinkUnusable) {
		t.Fatalf("second consume expected ErrLinkUnusable, got: %v", err)
	}
	if _, _, err := svc.Resolve(link.Code); !errors.Is(err, ErrLinkUnusable) {
		t.Fatalf("exhausted link resolve expected ErrLinkUnusable, got: %v", err)
	}

	if err := svc.Consume("missingcode"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("missing code expected ErrLinkNotFound, got: %v", err)
	}
}

func TestLinkServiceRevokeOwnership(t *testing.T) {
	svc, registry, _ := setupLinkServiceTest(t)
	if _, err := registry.GetOrCreate(3004); err != nil {
		t.Fatalf("create owner failed: %v", err)
	}
	if _, err := registry.GetOrCreate(3005); err != nil {
		t.Fatalf("create outsider failed: %v", err)
	}

	link, err := svc.Issue(IssueLinkInput{OwnerPeerID: 3004})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.Revoke(link.Code, 3005); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("foreign revoke expected ErrLinkNotFound, got: %v", err)
	}
	if err := svc.Revoke(link.Code, 3004); err != nil {
		t.Fatalf("owner revoke failed: %v", err)
	}
	if err := svc.Consume(link.Code); !errors.Is(err, ErrLinkUnusable) {
		t.Fatalf("revoked link consume expected ErrLinkUnusable, got: %v", err)
	}
}
