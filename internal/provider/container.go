package provider

import (
	"time"

	"github.com/anonic-next/internal/cache"
	"github.com/anonic-next/internal/config"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"
	"github.com/anonic-next/internal/queue"
	"github.com/anonic-next/internal/repository"
	"github.com/anonic-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	BlockRepo   repository.BlockRepository
	PendingRepo repository.PendingTargetRepository
	RouteRepo   repository.MessageRouteRepository
	LinkRepo    repository.TempLinkRepository

	// 外部传输协作方，默认占位实现，接入方替换后重建路由服务
	Deliverer service.Deliverer
	Notifier  service.Notifier
	Reporter  service.Reporter

	// Services
	RegistryService  *service.RegistryService
	BlockService     *service.BlockService
	LinkService      *service.LinkService
	RateLimitService *service.RateLimitService
	RoutingService   *service.RoutingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Deliverer:   service.NoopDeliverer{},
		Notifier:    service.NoopNotifier{},
		Reporter:    service.NoopReporter{},
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.BlockRepo = repository.NewBlockRepository(db)
	c.PendingRepo = repository.NewPendingTargetRepository(db)
	c.RouteRepo = repository.NewMessageRouteRepository(db)
	c.LinkRepo = repository.NewTempLinkRepository(db)
}

func (c *Container) initServices() {
	relay := c.Config.Relay
	c.RegistryService = service.NewRegistryService(c.UserRepo, c.LinkRepo, c.BlockRepo, c.RouteRepo, c.PendingRepo, relay.RotateCooldownDays)
	c.BlockService = service.NewBlockService(c.BlockRepo, c.UserRepo, c.PendingRepo)
	c.LinkService = service.NewLinkService(c.LinkRepo, c.UserRepo, relay.LinkDefaultUses, relay.LinkDefaultTTLHours, relay.LinkMaxPerUser)
	c.RateLimitService = service.NewRateLimitService(time.Duration(relay.RateWindowSeconds) * time.Second)
	c.RoutingService = service.NewRoutingService(
		c.RegistryService,
		c.BlockService,
		c.LinkService,
		c.RateLimitService,
		c.UserRepo,
		c.PendingRepo,
		c.RouteRepo,
		c.Deliverer,
		c.Notifier,
		c.Reporter,
		c.QueueClient,
		service.RoutingOptions{
			PendingExpireMinutes: relay.PendingExpireMinutes,
			RouteRetentionHours:  relay.RouteRetentionHours,
			SpamThreshold:        relay.SpamThreshold,
			SpamBanHours:         relay.SpamBanHours,
		},
	)
}
