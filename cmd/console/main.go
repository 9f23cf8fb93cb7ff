package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "wstore",
		Usage: "W-Store 运营控制台：会话、代登录与卖家指标覆盖",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080", Usage: "API 地址", Sources: cli.EnvVars("WSTORE_SERVER")},
			&cli.StringFlag{Name: "home", Usage: "本地状态目录（默认 ~/.wstore）", Sources: cli.EnvVars("WSTORE_HOME")},
			&cli.StringFlag{Name: "lang", Value: "zh-CN", Usage: "错误消息语言", Sources: cli.EnvVars("WSTORE_LANG")},
			&cli.BoolFlag{Name: "json", Usage: "输出原始 JSON"},
			&cli.BoolFlag{Name: "debug", Usage: "输出调试日志"},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			renewCommand(),
			impersonateCommand(),
			dashboardCommand(),
			ordersCommand(),
			overridesCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.Run(ctx, args); err != nil {
		log.Fatal(err)
	}
}
