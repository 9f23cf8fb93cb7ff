package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/provider"
	"github.com/techphorix/w-store-sub004/internal/router"
	"github.com/techphorix/w-store-sub004/internal/service"
	"github.com/techphorix/w-store-sub004/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	return buildRunner(cfg, mode, false)
}

func buildRunner(cfg *config.Config, mode string, skipBootstrap bool) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	if !skipBootstrap {
		if err := bootstrapData(cfg, container); err != nil {
			return nil, err
		}
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		// 会话清理不依赖队列
		interval := time.Duration(cfg.Session.SweepIntervalSeconds) * time.Second
		services = append(services, worker.NewSessionSweeper(container.SessionRepo, interval))

		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no services initialized for mode %q", mode)
	}

	return NewRunner(services...), nil
}

// bootstrapData 写入默认管理员、预置角色策略与卖家指标占位行，并刷新授权缓存
func bootstrapData(cfg *config.Config, container *provider.Container) error {
	if password := cfg.Bootstrap.AdminPassword; password != "" {
		if err := service.ValidatePassword(cfg.Security.PasswordPolicy, password); err != nil {
			var policyErr service.PasswordPolicyError
			if errors.As(err, &policyErr) {
				return fmt.Errorf("bootstrap admin password rejected: %s: %w", policyErr.Localized(""), err)
			}
			return err
		}
	}
	err := models.Bootstrap(container.DB, models.BootstrapOptions{
		AdminEmail:    cfg.Bootstrap.AdminEmail,
		AdminPassword: cfg.Bootstrap.AdminPassword,
	}, authz.SeedRolePolicies)
	if err != nil {
		return fmt.Errorf("bootstrap data failed: %w", err)
	}
	if err := container.AuthzService.ReloadPolicy(); err != nil {
		return fmt.Errorf("reload authz policy failed: %w", err)
	}
	return nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := buildRunner(opts.Config, opts.Mode, opts.SkipBootstrap)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
