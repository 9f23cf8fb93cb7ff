package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/techphorix/w-store-sub004/internal/client/api"
	"github.com/techphorix/w-store-sub004/internal/client/overrides"
	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "登录并保存会话",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("WSTORE_PASSWORD")},
			&cli.BoolFlag{Name: "remember-me", Usage: "使用长效会话"},
		},
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			principal, err := cs.manager.Login(ctx, c.String("email"), c.String("password"), c.Bool("remember-me"))
			if err != nil {
				return err
			}
			return cs.print(principal, func() {
				fmt.Printf("已登录: %s (%s)\n", principal.Email, principal.Role)
			})
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "登出并清除本地会话",
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			if err := cs.manager.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("已登出")
			return nil
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "查看当前身份",
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			me, err := cs.client.Me(ctx)
			if err != nil {
				return err
			}
			return cs.print(me, func() {
				fmt.Printf("当前身份: %s #%d (%s)\n", me.User.Email, me.User.ID, me.User.Role)
				if me.Impersonating && me.AuthorizingUser != nil {
					fmt.Printf("代登录发起人: %s #%d\n", me.AuthorizingUser.Email, me.AuthorizingUser.ID)
				}
				if me.ExpiresAt != "" {
					fmt.Printf("凭证过期时间: %s\n", me.ExpiresAt)
				}
			})
		}),
	}
}

func renewCommand() *cli.Command {
	return &cli.Command{
		Name:  "renew",
		Usage: "立即续期标准会话",
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			if err := cs.manager.Renew(ctx); err != nil {
				return err
			}
			state := cs.manager.State()
			fmt.Printf("已续期，过期时间: %s\n", state.StandardExpiresAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		}),
	}
}

func impersonateCommand() *cli.Command {
	return &cli.Command{
		Name:  "impersonate",
		Usage: "代登录管理",
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "以管理员身份代登录账号",
				ArgsUsage: "<principal-id>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					targetID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					target, err := cs.manager.StartImpersonation(ctx, targetID)
					if err != nil {
						return err
					}
					return cs.print(target, func() {
						fmt.Printf("正在代登录: %s #%d (%s)\n", target.Email, target.ID, target.Role)
					})
				}),
			},
			{
				Name:  "stop",
				Usage: "退出代登录",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					if err := cs.manager.StopImpersonation(); err != nil {
						return err
					}
					fmt.Println("已退出代登录")
					return nil
				}),
			},
		},
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:      "dashboard",
		Usage:     "查看卖家指标；不带参数时查看当前生效卖家",
		ArgsUsage: "[seller-id]",
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			if c.Args().Len() == 0 {
				snapshot, err := cs.client.MyDashboard(ctx)
				if err != nil {
					return err
				}
				return cs.print(snapshot, func() { printSnapshot(snapshot) })
			}
			sellerID, err := parseSellerArg(c, 0)
			if err != nil {
				return err
			}
			view, err := cs.engine.View(ctx, sellerID)
			if err != nil {
				return err
			}
			return cs.print(view, func() { printView(view) })
		}),
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "查看当前生效卖家的订单",
		Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
			orders, err := cs.client.MyOrders(ctx, 1, 50)
			if err != nil {
				return err
			}
			return cs.print(orders, func() {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ORDER\tSTATUS\tAMOUNT\tCREATED")
				for _, order := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", order.OrderNo, order.Status, order.TotalAmount.StringFixed(2), order.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				_ = w.Flush()
			})
		}),
	}
}

func overridesCommand() *cli.Command {
	return &cli.Command{
		Name:  "overrides",
		Usage: "卖家指标覆盖值",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "列出服务端覆盖值",
				ArgsUsage: "<seller-id>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					entries, err := cs.client.ListOverrides(ctx, sellerID)
					if err != nil {
						return err
					}
					return cs.print(entries, func() {
						w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
						fmt.Fprintln(w, "METRIC\tOVERRIDE\tORIGINAL\tUPDATED_BY\tUPDATED_AT")
						for _, entry := range entries {
							fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
								entry.MetricName,
								entry.OverrideValue.StringFixed(2),
								entry.OriginalValue.StringFixed(2),
								entry.UpdatedBy,
								entry.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
							)
						}
						_ = w.Flush()
					})
				}),
			},
			{
				Name:      "set",
				Usage:     "写入覆盖值（失败时保留在本地待重试）",
				ArgsUsage: "<seller-id> <metric> <value>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					metric, err := metricArg(c, 1)
					if err != nil {
						return err
					}
					value, err := decimal.NewFromString(strings.TrimSpace(c.Args().Get(2)))
					if err != nil {
						return fmt.Errorf("指标值无效: %q", c.Args().Get(2))
					}
					entry, err := cs.engine.Edit(ctx, sellerID, metric, value)
					if err != nil {
						if errors.Is(err, overrides.ErrUnknownMetric) {
							return fmt.Errorf("未知指标 %s，可用指标: %s", metric, strings.Join(constants.MetricNames(), ", "))
						}
						return fmt.Errorf("提交失败，编辑已保留，可执行 overrides retry: %w", err)
					}
					return cs.print(entry, func() {
						fmt.Printf("已覆盖 %s = %s\n", entry.MetricName, entry.OverrideValue.StringFixed(2))
					})
				}),
			},
			{
				Name:      "delete",
				Usage:     "删除覆盖值，恢复真实值",
				ArgsUsage: "<seller-id> <metric>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					metric, err := metricArg(c, 1)
					if err != nil {
						return err
					}
					if err := cs.client.DeleteOverride(ctx, sellerID, metric); err != nil {
						return err
					}
					fmt.Printf("已删除 %s 的覆盖值\n", metric)
					return nil
				}),
			},
			{
				Name:      "clear",
				Usage:     "将覆盖值置为中性值（保留覆盖记录）",
				ArgsUsage: "<seller-id> <metric>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					metric, err := metricArg(c, 1)
					if err != nil {
						return err
					}
					entry, err := cs.client.ClearOverride(ctx, sellerID, metric)
					if err != nil {
						return err
					}
					return cs.print(entry, func() {
						fmt.Printf("已清零 %s = %s\n", entry.MetricName, entry.OverrideValue.StringFixed(2))
					})
				}),
			},
			{
				Name:      "pending",
				Usage:     "列出本地未确认的编辑",
				ArgsUsage: "<seller-id>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					pending := cs.engine.Pending(sellerID)
					return cs.print(pending, func() { printPending(pending) })
				}),
			},
			{
				Name:      "retry",
				Usage:     "以本地缓存值重新提交",
				ArgsUsage: "<seller-id> <metric>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					metric, err := metricArg(c, 1)
					if err != nil {
						return err
					}
					entry, err := cs.engine.Retry(ctx, sellerID, metric)
					if errors.Is(err, overrides.ErrForeignEdit) {
						return fmt.Errorf("该编辑由其他管理员发起，可执行 overrides discard 丢弃或重新 set: %w", err)
					}
					if err != nil {
						return err
					}
					return cs.print(entry, func() {
						fmt.Printf("已覆盖 %s = %s\n", entry.MetricName, entry.OverrideValue.StringFixed(2))
					})
				}),
			},
			{
				Name:      "discard",
				Usage:     "丢弃本地未确认的编辑",
				ArgsUsage: "<seller-id> <metric>",
				Action: withConsole(func(ctx context.Context, c *cli.Command, cs *console) error {
					sellerID, err := parseSellerArg(c, 0)
					if err != nil {
						return err
					}
					metric, err := metricArg(c, 1)
					if err != nil {
						return err
					}
					if err := cs.engine.Discard(sellerID, metric); err != nil {
						return err
					}
					fmt.Printf("已丢弃 %s 的本地编辑\n", metric)
					return nil
				}),
			},
		},
	}
}

func printSnapshot(snapshot *api.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tOVERRIDDEN")
	for _, metric := range constants.MetricNames() {
		value, _ := snapshot.Value(metric)
		fmt.Fprintf(w, "%s\t%s\t%v\n", metric, value.StringFixed(2), snapshot.IsOverridden(metric))
	}
	_ = w.Flush()
}

func printView(view *overrides.View) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tOVERRIDDEN\tLOCAL")
	for _, item := range view.Metrics {
		local := ""
		if item.Pending {
			local = fmt.Sprintf("%s (by #%d)", item.State, item.EditedBy)
			if item.LastError != "" {
				local += ": " + item.LastError
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", item.Name, item.Value.StringFixed(2), item.Overridden, local)
	}
	_ = w.Flush()
}

func printPending(pending []overrides.PendingEdit) {
	if len(pending) == 0 {
		fmt.Println("没有未确认的编辑")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tPREVIOUS\tEDITED_BY\tSTATE\tATTEMPTS\tLAST_ERROR")
	for _, edit := range pending {
		previous := "-"
		if edit.PreviousValue != nil {
			previous = edit.PreviousValue.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			edit.MetricName, edit.Value.StringFixed(2), previous, edit.EditedBy, edit.State, edit.Attempts, edit.LastError)
	}
	_ = w.Flush()
}
