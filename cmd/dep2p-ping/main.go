// dep2p-ping 最小 P2P 存活探测节点
//
// 用法:
//
//	dep2p-ping                                   # 只监听
//	dep2p-ping /ip4/127.0.0.1/tcp/4001           # 监听并拨号
//	dep2p-ping --listen /ip4/0.0.0.0/udp/0/quic-v1 --metrics-addr 127.0.0.1:9464
//
// 事件通过日志输出，ping 结果在 debug 级别（DEP2P_LOG_LEVEL=debug）。
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-dep2p-ping"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

var logger = log.Logger("dep2p/cmd")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd 构建根命令
func newRootCmd() *cobra.Command {
	flags := &cliFlags{}
	cmd := &cobra.Command{
		Use:           "dep2p-ping [dial-multiaddr]",
		Short:         "最小 P2P 存活探测节点",
		Long:          "监听指定地址，可选地拨号一个远端节点，并在每条连接上周期性运行 ping 协议。",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}
	flags.register(cmd)
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), dep2p.VersionInfo())
		},
	}
}

// run 启动节点直到收到退出信号
//
// 地址格式错误与节点构造失败直接返回错误；拨号失败只记录，节点继续运行。
func run(cmd *cobra.Command, flags *cliFlags, args []string) error {
	if flags.logLevel != "" {
		applyLogLevel(flags.logLevel)
	}

	// 拨号地址先于节点构造解析，格式错误时不启动
	var target multiaddr.Multiaddr
	if len(args) == 1 {
		a, err := multiaddr.NewMultiaddr(args[0])
		if err != nil {
			return fmt.Errorf("无效的拨号地址 %q: %w", args[0], err)
		}
		target = a
	}

	cfg, err := flags.buildConfig(cmd)
	if err != nil {
		return err
	}

	node, err := dep2p.New(dep2p.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("启动 dep2p-ping 节点", "version", dep2p.Version, "commit", dep2p.GitCommit)
	if err := node.Start(ctx); err != nil {
		_ = node.Close()
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		if err := node.Close(); err != nil {
			logger.Warn("关闭节点失败", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Local peer id: %s\n", node.ID())

	g, gctx := errgroup.WithContext(ctx)
	if target != nil {
		g.Go(func() error {
			if _, err := node.Dial(gctx, target); err != nil {
				// 失败已作为 DialError 事件记录
				if !errors.Is(err, context.Canceled) {
					logger.Warn("拨号失败，继续监听", "addr", target, "error", err)
				}
				return nil
			}
			fmt.Fprintf(out, "Dialed %s\n", target)
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case sig := <-node.Done():
			logger.Info("节点已退出", "signal", sig.Signal)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("正在关闭节点")
	return nil
}

// applyLogLevel 在当前日志配置上叠加级别设置
func applyLogLevel(levels string) {
	cur := log.CurrentConfig()
	cfg := &log.Config{
		DefaultLevel:    cur.DefaultLevel,
		SubsystemLevels: maps.Clone(cur.SubsystemLevels),
		Format:          cur.Format,
	}
	if cfg.SubsystemLevels == nil {
		cfg.SubsystemLevels = make(map[string]slog.Level)
	}
	log.ParseLevelConfig(cfg, levels)
	log.SetConfig(cfg)
}
