package main

import (
	"github.com/anonic-next/internal/config"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/repository"
	"github.com/anonic-next/internal/service"
)

// 演示数据：三个匿名身份、一条邀请链接、一条拉黑记录。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	userRepo := repository.NewUserRepository(models.DB)
	linkRepo := repository.NewTempLinkRepository(models.DB)
	blockRepo := repository.NewBlockRepository(models.DB)
	routeRepo := repository.NewMessageRouteRepository(models.DB)
	pendingRepo := repository.NewPendingTargetRepository(models.DB)

	registry := service.NewRegistryService(userRepo, linkRepo, blockRepo, routeRepo, pendingRepo, cfg.Relay.RotateCooldownDays)
	links := service.NewLinkService(linkRepo, userRepo, cfg.Relay.LinkDefaultUses, cfg.Relay.LinkDefaultTTLHours, cfg.Relay.LinkMaxPerUser)
	blocks := service.NewBlockService(blockRepo, userRepo, pendingRepo)

	peerIDs := []int64{100001, 100002, 100003}
	for _, peerID := range peerIDs {
		user, err := registry.GetOrCreate(peerID)
		if err != nil {
			stdLog.Fatalf("Failed to seed identity %d: %v", peerID, err)
		}
		stdLog.Printf("identity %d -> nickname=%q short_code=%s", peerID, user.Nickname, user.ShortCode)
	}

	link, err := links.Issue(service.IssueLinkInput{OwnerPeerID: peerIDs[0]})
	if err != nil {
		stdLog.Fatalf("Failed to seed invite link: %v", err)
	}
	stdLog.Printf("invite link for %d: %s", peerIDs[0], link.Code)

	block, err := blocks.Block(peerIDs[1], peerIDs[2])
	if err != nil {
		stdLog.Fatalf("Failed to seed block entry: %v", err)
	}
	stdLog.Printf("block: %d -> %s (%s)", peerIDs[1], block.Nickname, block.ShortCode)

	stdLog.Println("Seed data created successfully!")
}
