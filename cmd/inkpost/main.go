package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"inkpost/internal/config"
	"inkpost/internal/db"
	"inkpost/internal/handler"
	"inkpost/internal/job"
	"inkpost/internal/kvstore"
	"inkpost/internal/middleware"
	"inkpost/internal/repo"
	"inkpost/internal/schedule"
	"inkpost/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "inkpost",
		Short: "inkpost blog publishing server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run inkpost server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ephemeral_store", cfg.EphemeralStore.Type),
	)

	ephemeral, err := kvstore.New(cfg.EphemeralStore, conn)
	if err != nil {
		return fmt.Errorf("init ephemeral store: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	blogRepo := repo.NewBlogRepo(conn)

	mailSender := service.NewEmailSender(cfg.Mail)
	otpService := service.NewOTPService(ephemeral, mailSender)
	authService := service.NewAuthService(userRepo, otpService, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	blogService := service.NewBlogService(blogRepo, cfg.AnonymousAuthorID)
	publicService := service.NewPublicService(blogRepo, userRepo, cfg.AnonymousAuthorID)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService, cfg.SecureCookies()),
		OTP:       handler.NewOTPHandler(otpService),
		Blogs:     handler.NewBlogHandler(blogService),
		Public:    handler.NewPublicHandler(publicService),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimits: handler.RateLimits{
			Register:       middleware.RateLimitRule{Window: time.Hour, Max: 5},
			Login:          middleware.RateLimitRule{Window: 15 * time.Minute, Max: 10},
			ForgotPassword: middleware.RateLimitRule{Window: 30 * time.Minute, Max: 5},
			SendOTP:        middleware.RateLimitRule{Window: 10 * time.Minute, Max: 3},
			VerifyOTP:      middleware.RateLimitRule{Window: 10 * time.Minute, Max: 5},
			BlogCreate:     middleware.RateLimitRule{Window: time.Hour, Max: 10},
			BlogUpdate:     middleware.RateLimitRule{Window: 30 * time.Minute, Max: 20},
			BlogDelete:     middleware.RateLimitRule{Window: time.Hour, Max: 10},
			BlogPublish:    middleware.RateLimitRule{Window: time.Hour, Max: 10},
		},
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if pg, ok := ephemeral.(*kvstore.PostgresStore); ok {
		if err := scheduler.AddJob(job.NewKVCleanupJob(pg), "*/5 * * * *"); err != nil {
			return fmt.Errorf("schedule kv cleanup: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
