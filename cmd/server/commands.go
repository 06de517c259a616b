package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldops/internal/api/handler"
	"fieldops/internal/api/router"
	"fieldops/internal/repository"
	"fieldops/internal/service"
	"fieldops/pkg/database"
	"fieldops/pkg/jwt"
	"fieldops/pkg/redis"
)

// newServeCmd 启动 HTTP 服务与过期清理任务
func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	db, closeDB, err := a.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	// Redis 可选：连接失败时降级运行（无黑名单、无限流、无事件广播）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级运行", zap.Error(err))
		rdb = nil
	}
	var (
		publisher service.EventPublisher
		revoker   handler.TokenRevoker
	)
	if rdb != nil {
		defer rdb.Close()
		publisher = rdb
		revoker = rdb
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, publisher, logger)
	h := handler.NewHandler(svc, revoker, logger)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	if err := svc.Expirer.Start(); err != nil {
		return err
	}
	defer svc.Expirer.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
	case <-ctx.Done():
		logger.Info("收到关闭信号，开始优雅关闭...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}

// newMigrateCmd 数据库迁移运维命令
func (a *app) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "应用全部未执行的迁移",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, closeDB, err := a.openDB(true)
				if err != nil {
					return err
				}
				closeDB()
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "回退迁移（默认 1 步）",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("步数必须为整数: %w", err)
					}
					steps = n
				}

				db, closeDB, err := a.openDB(false)
				if err != nil {
					return err
				}
				defer closeDB()
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return database.RollbackMigrations(sqlDB, steps, a.logger)
			},
		},
	)
	return cmd
}

// newExpireCmd 单次执行过期清理（适合外部调度器，如 k8s CronJob）
func (a *app) newExpireCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "关闭长期未处理的换班申请",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.openDB(false)
			if err != nil {
				return err
			}
			defer closeDB()

			expiryCfg := a.cfg.Exchange.Expiry
			if ttl > 0 {
				expiryCfg.PendingTTL = ttl
			}
			if expiryCfg.PendingTTL <= 0 {
				return errors.New("pending_ttl 必须为正数")
			}

			repo := repository.NewRepository(db)
			notifier := service.NewExchangeNotifier(repo, nil, a.cfg.Redis.ChannelPrefix, a.logger.Named("notifier"))
			expirer := service.NewExchangeExpirer(&expiryCfg, repo, notifier, a.logger.Named("expirer"))

			n, err := expirer.RunOnce(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已关闭 %d 条换班申请\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "覆盖配置中的 exchange.expiry.pending_ttl")
	return cmd
}

// newTokenCmd 为已存在的用户签发 Access Token（联调与运维使用）
func (a *app) newTokenCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "为指定用户签发 Access Token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.openDB(false)
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := repository.NewRepository(db).User.GetByID(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("查询用户 %s: %w", userID, err)
			}
			if !user.IsActive {
				return fmt.Errorf("用户 %s 已停用", userID)
			}

			siteID := ""
			if user.SiteID != nil {
				siteID = *user.SiteID
			}
			token, err := jwt.NewManager(&a.cfg.Auth).GenerateAccessToken(user.UserID, string(user.Role), siteID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
