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

func setupBlockServiceTest(t *testing.T) (*BlockService, *RegistryService) {
	t.Helper()
	dsn := fmt.Sprintf("file:block_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	blockRepo := repository.NewBlockRepository(db)
	pendingRepo := repository.NewPendingTargetRepository(db)
	registry := NewRegistryService(userRepo, repository.NewTempLinkRepository(db), blockRepo, repository.NewMessageRouteRepository(db), pendingRepo, 7)
	return NewBlockService(blockRepo, userRepo, pendingRepo), registry
}

func TestBlockServiceBlockIsOneDirectional(t *testing.T) {
	svc, registry := setupBlockServiceTest(t)
	if _, err := registry.GetOrCreate(2001); err != nil {
		t.Fatalf("create recipient failed: %v", err)
	}
	if _, err := registry.GetOrCreate(2002); err != nil {
		t.Fatalf("create peer failed: %v", err)
	}

	block, err := svc.Block(2001, 2002)
	if err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if block.Nickname == "" || block.ShortCode == "" {
		t.Fatalf("block must snapshot nickname and short code, got %+v", block)
	}

	blocked, err := svc.IsBlocked(2001, 2002)
	if err != nil {
		t.Fatalf("is blocked failed: %v", err)
	}
	if !blocked {
		t.Fatalf("2001 must block 2002")
	}

	reverse, err := svc.IsBlocked(2002, 2001)
	if err != nil {
		t.Fatalf("reverse is blocked failed: %v", err)
	}
	if reverse {
		t.Fatalf("block must not apply in the reverse direction")
	}
}

func TestBlockServiceBlockIdempotentAndSelf(t *testing.T) {
	svc, registry := setupBlockServiceTest(t)
	if _, err := registry.GetOrCreate(2003); err != nil {
		t.Fatalf("create recipient failed: %v", err)
	}
	if _, err := registry.GetOrCreate(2004); err != nil {
		t.Fatalf("create peer failed: %v", err)
	}

	first, err := svc.Block(2003, 2004)
	if err != nil {
		t.Fatalf("block failed: %v", err)
	}
	second, err := svc.Block(2003, 2004)
	if err != nil {
		t.Fatalf("repeat block failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("repeat block must return the existing entry")
	}

	if _, err := svc.Block(2003, 2003); !errors.Is(err, ErrSelfRoute) {
		t.Fatalf("self block expected ErrSelfRoute, got: %v", err)
	}
	if _, err := svc.Block(2003, 9999); !errors.Is(err, ErrPeerNotFound) {
		t.Fatalf("unknown peer expected ErrPeerNotFound, got: %v", err)
	}
}

func TestBlockServiceUnblockByIdentifier(t *testing.T) {
	svc, registry := setupBlockServiceTest(t)
	if _, err := registry.GetOrCreate(2005); err != nil {
		t.Fatalf("create recipient failed: %v", err)
	}
	peer, err := registry.GetOrCreate(2006)
	if err != nil {
		t.Fatalf("create peer failed: %v", err)
	}

	if _, err := svc.Block(2005, 2006); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	removed, err := svc.Unblock(2005, peer.ShortCode)
	if err != nil {
		t.Fatalf("unblock by short code failed: %v", err)
	}
	if removed.BlockedPeerID != 2006 {
		t.Fatalf("unblock removed wrong entry: %+v", removed)
	}

	if _, err := svc.Unblock(2005, peer.ShortCode); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("repeat unblock expected ErrBlockNotFound, got: %v", err)
	}

	// 昵称子串匹配，大小写不敏感
	if _, err := svc.Block(2005, 2006); err != nil {
		t.Fatalf("re-block failed: %v", err)
	}
	fragment := peer.Nickname
	if len(fragment) > 4 {
		fragment = fragment[:4]
	}
	removed, err = svc.Unblock(2005, fragment)
	if err != nil {
		t.Fatalf("unblock by nickname fragment failed: %v", err)
	}
	if removed.BlockedPeerID != 2006 {
		t.Fatalf("nickname unblock removed wrong entry: %+v", removed)
	}
}

func TestBlockServiceUnblockAll(t *testing.T) {
	svc, registry := setupBlockServiceTest(t)
	for _, id := range []int64{2007, 2008, 2009} {
		if _, err := registry.GetOrCreate(id); err != nil {
			t.Fatalf("create identity failed: %v", err)
		}
	}
	if _, err := svc.Block(2007, 2008); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, err := svc.Block(2007, 2009); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	count, err := svc.UnblockAll(2007)
	if err != nil {
		t.Fatalf("unblock all failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("unblock all count want 2 got %d", count)
	}
	list, err := svc.List(2007)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("block list must be empty, got %d", len(list))
	}
}
