// idgend Snowflake ID 生成服务。
//
// 用法:
//
//	idgend [全局选项] <命令> [命令参数]
//
// 命令:
//
//	serve          启动HTTP服务（GET /v1/ids, /v1/ids/:id, /v1/metrics, /healthz）
//	gen            在本地生成ID并逐行输出
//	parse <id>     拆解ID（支持十进制、0x、0b）
//
// 全局选项:
//
//	-c, --config   YAML配置文件路径，未指定时只使用默认值和 IDGEND_* 环境变量
//
// 示例:
//
//	IDGEN_WORKER_ID=3 idgend serve -c /etc/idgend.yaml
//	idgend gen --count 5 --worker 1 --datacenter 2
//	idgend parse 0x1c8f2a3b4c000
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"katydid-snowflake/internal/app"
	"katydid-snowflake/pkg/config"
	"katydid-snowflake/pkg/idgen"
	"katydid-snowflake/pkg/idgen/domain"
	"katydid-snowflake/pkg/idgen/resolver"
	"katydid-snowflake/pkg/idgen/snowflake"
	"katydid-snowflake/pkg/logger"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createApp(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "idgend: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func createApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "idgend",
		Usage:   "Snowflake ID 生成服务",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML配置文件路径",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			genCommand(),
			parseCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动HTTP服务",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			log, closeLog, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			zap.ReplaceGlobals(log)

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("idgend failed to start", zap.Error(err))
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
}

func genCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen",
		Usage: "在本地生成ID",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "生成数量"},
			&cli.IntFlag{Name: "worker", Aliases: []string{"w"}, Usage: "工作机器ID"},
			&cli.IntFlag{Name: "datacenter", Aliases: []string{"d"}, Usage: "数据中心ID"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			err := idgen.Init(ctx, int64(cmd.Int("datacenter")), resolver.Static(int64(cmd.Int("worker"))))
			if err != nil {
				return err
			}

			ids, err := idgen.GenerateIDs(int(cmd.Int("count")))
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.Root().Writer, id.String())
			}
			return nil
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "拆解ID",
		ArgsUsage: "<id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("parse: expected exactly one id argument, got %d", cmd.Args().Len())
			}

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			id, err := domain.ParseID(cmd.Args().First())
			if err != nil {
				return err
			}

			info, err := snowflake.NewParser(cfg.IDGen.Layout, snowflake.SystemClock).Parse(id.Int64())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
