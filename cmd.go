package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ircnotify/internal/config"
	"ircnotify/internal/logger"
	"ircnotify/internal/notifier"
	"ircnotify/internal/singleinstance"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
	listen     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	runCmd := newRunCmd(opts)
	root := &cobra.Command{
		Use:           "ircnotify",
		Short:         "把聊天客户端中的提及和私聊推送到手机通知中继",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认 ./config.json 或 ~/.ircnotify/config.json）")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "输出诊断日志")
	root.PersistentFlags().StringVar(&opts.listen, "listen", config.DefaultBridgeListen, "宿主桥接监听地址")

	root.AddCommand(runCmd, newClearCmd(opts), newSendCmd(opts), newSetCmd(opts))
	return root
}

// openSettings 打开配置文件并绑定命令行参数
func openSettings(cmd *cobra.Command, opts *rootOptions) (*config.File, error) {
	settings, err := config.Open(opts.configPath)
	if err != nil {
		return nil, err
	}
	err = settings.BindFlags(cmd.Flags(), map[string]string{
		"debug":  config.KeyDebug,
		"listen": config.KeyBridgeListen,
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "启动宿主桥接并转发通知",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init("info", logger.DefaultLogDir()); err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}

			lock, err := singleinstance.Acquire(singleinstance.DefaultPath())
			if errors.Is(err, singleinstance.ErrAlreadyRunning) {
				logger.Info("检测到已有实例在运行，退出当前实例")
				return nil
			}
			if err != nil {
				return err
			}
			defer lock.Release()

			settings, err := openSettings(cmd, opts)
			if err != nil {
				return err
			}
			logger.Infof("使用配置文件: %s", settings.Path())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return NewApp(ctx, settings).Run()
		},
	}
}

// oneShot 加载配置后执行一次通知
func oneShot(cmd *cobra.Command, opts *rootOptions, send func(ctx context.Context, n *notifier.Notifier)) error {
	settings, err := openSettings(cmd, opts)
	if err != nil {
		return err
	}

	store := config.NewStore(settings)
	store.Reload()
	cfg := store.Current()
	logger.SetDebug(cfg.Debug)
	if cfg.AuthToken == "" {
		return fmt.Errorf("未设置 auth_token（%s 或 %s_AUTH_TOKEN）", settings.Path(), config.EnvPrefix)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	send(ctx, notifier.New(store))
	return nil
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "发送清除通知",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(cmd, opts, func(ctx context.Context, n *notifier.Notifier) {
				n.Clear(ctx)
				logger.Info("已尝试发送清除通知")
			})
		},
	}
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "发送一条测试通知",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, opts, func(ctx context.Context, n *notifier.Notifier) {
				n.Send(ctx, "", "ircnotify", args[0])
				logger.Info("已尝试发送测试通知")
			})
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "修改一个设置并写回配置文件",
		Long:  "可修改的设置: server, port, auth_token, away_only, clear_on_return, debug, bridge.listen, bridge.token",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// 不绑定命令行参数，避免把 --debug/--listen 的值写进文件
			settings, err := config.Open(opts.configPath)
			if err != nil {
				return err
			}
			if err := settings.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := settings.Save(); err != nil {
				return err
			}
			logger.Infof("已保存 %s 到 %s", args[0], settings.Path())
			return nil
		},
	}
}
