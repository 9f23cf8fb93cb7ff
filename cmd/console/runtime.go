package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/client/api"
	"github.com/techphorix/w-store-sub004/internal/client/overrides"
	"github.com/techphorix/w-store-sub004/internal/client/session"
	"github.com/techphorix/w-store-sub004/internal/logger"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	sessionFile = "session.json"
	pendingFile = "pending.json"
)

// console 单次命令的运行时依赖
type console struct {
	log     *zap.SugaredLogger
	manager *session.Manager
	client  *api.Client
	engine  *overrides.Engine
	json    bool
}

func resolveHome(c *cli.Command) (string, error) {
	home := strings.TrimSpace(c.String("home"))
	if home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(userHome, ".wstore"), nil
}

func openConsole(ctx context.Context, c *cli.Command) (*console, error) {
	home, err := resolveHome(c)
	if err != nil {
		return nil, err
	}
	log := zap.NewNop().Sugar()
	if c.Bool("debug") {
		log = logger.NewWriter(os.Stderr, true).Sugar()
	}

	server := c.String("server")
	opts := api.Options{Logger: log, Language: c.String("lang")}
	manager, err := session.NewManager(
		api.NewAuthBackend(server, opts),
		session.NewFileStore(filepath.Join(home, sessionFile)),
		session.Options{Logger: log},
	)
	if err != nil {
		return nil, err
	}
	client := api.NewClient(server, manager, opts)
	engine := overrides.NewEngine(client, overrides.NewCache(filepath.Join(home, pendingFile)), overrides.Options{
		Logger: log,
		Actor: func() uint {
			if principal := manager.State().Principal; principal != nil {
				return principal.ID
			}
			return 0
		},
	})
	if err := engine.Load(); err != nil {
		manager.Close()
		return nil, err
	}

	// 命令行为短进程，启动时做一次主动续期检查
	if err := manager.RenewIfNeeded(ctx); err != nil && !errors.Is(err, session.ErrLoggedOut) {
		log.Warnw("console_proactive_renew_failed", "error", err)
	}

	return &console{
		log:     log,
		manager: manager,
		client:  client,
		engine:  engine,
		json:    c.Bool("json"),
	}, nil
}

func (cs *console) Close() {
	cs.engine.Close()
	cs.manager.Close()
}

// withConsole 打开运行时并在命令结束后释放
func withConsole(fn func(ctx context.Context, c *cli.Command, cs *console) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cs, err := openConsole(ctx, c)
		if err != nil {
			return err
		}
		defer cs.Close()
		return describe(fn(ctx, c, cs))
	}
}

// describe 将常见错误转换为可读提示
func describe(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrLoggedOut):
		return fmt.Errorf("未登录或会话已失效，请重新执行 login: %w", err)
	case errors.Is(err, session.ErrImpersonationEnded):
		return fmt.Errorf("代登录已失效，已恢复管理员身份: %w", err)
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("%s (%s, HTTP %d)", apiErr.Message, apiErr.Code, apiErr.Status)
		}
	}
	return err
}

func (cs *console) print(value interface{}, text func()) error {
	if cs.json || text == nil {
		return printJSON(value)
	}
	text()
	return nil
}

func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func parseSellerArg(c *cli.Command, index int) (uint, error) {
	raw := strings.TrimSpace(c.Args().Get(index))
	if raw == "" {
		return 0, errors.New("缺少卖家ID参数")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("卖家ID无效: %s", raw)
	}
	return uint(id), nil
}

func metricArg(c *cli.Command, index int) (string, error) {
	metric := strings.TrimSpace(c.Args().Get(index))
	if metric == "" {
		return "", errors.New("缺少指标名称参数")
	}
	return metric, nil
}
