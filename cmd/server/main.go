package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/config"
	"fieldops/pkg/database"
	applogger "fieldops/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// app 各子命令共享的启动上下文
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fieldops",
		Short:         "外勤排班换班审批服务",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	root.AddCommand(
		a.newServeCmd(),
		a.newMigrateCmd(),
		a.newExpireCmd(),
		a.newTokenCmd(),
	)
	return root
}

// bootstrap 加载配置并初始化日志
func (a *app) bootstrap() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDB 连接数据库；migrate 为 true 时顺带执行未应用的迁移
func (a *app) openDB(migrate bool) (*gorm.DB, func(), error) {
	db, err := database.NewDB(&a.cfg.Database, a.cfg.Log.Level, a.logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	closeFn := func() { _ = sqlDB.Close() }

	if migrate {
		if err := database.RunMigrations(sqlDB, a.logger); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return db, closeFn, nil
}
