package provider

import (
	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/cache"
	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/queue"
	"github.com/techphorix/w-store-sub004/internal/repository"
	"github.com/techphorix/w-store-sub004/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	SessionRepo     repository.SessionRepository
	OverrideRepo    repository.OverrideRepository
	SellerStatsRepo repository.SellerStatsRepository
	OrderRepo       repository.OrderRepository
	AuditLogRepo    repository.AuditLogRepository

	// Services
	AuthzService       *authz.Service
	Gate               *authz.Gate
	TokenService       *service.TokenService
	IdentityResolver   *service.IdentityResolver
	AuditService       *service.AuditService
	AuthService        *service.AuthService
	PrincipalService   *service.PrincipalService
	OverrideService    *service.OverrideService
	MetricReconciler   *service.MetricReconciler
	DashboardService   *service.DashboardService
	SellerOrderService *service.SellerOrderService
}

// NewContainer 初始化容器（使用全局数据库连接）
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

	c, err := Build(cfg, models.DB, queueClient)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	return c
}

// Build 基于给定数据库与队列客户端组装容器，queueClient 可为 nil
func Build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) (*Container, error) {
	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.SessionRepo = repository.NewSessionRepository(db)
	c.OverrideRepo = repository.NewOverrideRepository(db)
	c.SellerStatsRepo = repository.NewSellerStatsRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return err
	}
	c.AuthzService = authzService
	c.Gate = authz.NewGate(c.DB)

	var enqueuer service.AuditEnqueuer
	if c.QueueClient != nil && c.QueueClient.Enabled() {
		enqueuer = c.QueueClient
	}
	c.AuditService = service.NewAuditService(c.AuditLogRepo, enqueuer)

	c.TokenService = service.NewTokenService(c.Config)
	c.IdentityResolver = service.NewIdentityResolver(c.Config, c.UserRepo, c.SessionRepo)
	c.AuthService = service.NewAuthService(c.UserRepo, c.SessionRepo, c.TokenService, c.AuditService)
	c.PrincipalService = service.NewPrincipalService(c.UserRepo, c.SessionRepo, c.AuditService)
	c.OverrideService = service.NewOverrideService(c.OverrideRepo, c.UserRepo, c.SellerStatsRepo, c.AuditService)
	c.MetricReconciler = service.NewMetricReconciler(c.OverrideRepo)
	c.DashboardService = service.NewDashboardService(c.SellerStatsRepo, c.OverrideRepo, c.UserRepo)
	c.SellerOrderService = service.NewSellerOrderService(c.OrderRepo, c.Gate)
	return nil
}
