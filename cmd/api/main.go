package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/journalkeep/journal-backend/docs"
	"github.com/journalkeep/journal-backend/internal/bootstrap"
	"github.com/journalkeep/journal-backend/internal/config"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/handler"
	"github.com/journalkeep/journal-backend/internal/messaging"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/migration"
	"github.com/journalkeep/journal-backend/internal/repository"
	"github.com/journalkeep/journal-backend/internal/routes"
	"github.com/journalkeep/journal-backend/internal/scheduler"
	"github.com/journalkeep/journal-backend/internal/service"
	pkgcache "github.com/journalkeep/journal-backend/pkg/cache"
	"github.com/journalkeep/journal-backend/pkg/jwt"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/journalkeep/journal-backend/pkg/mailer"
	pkgredis "github.com/journalkeep/journal-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Journal Backend API
// @version         1.0
// @description     Versioned journaling backend: journals, entries with history, recycle bin, tags, media and reminders
//
// @license.name    MIT
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	log.Info().Str("env", env).Strs("env_files", dotenvFiles).Msg("starting journal-backend")

	// 설정 로드
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.LogResolved(cfg)

	// MySQL 연결 + 스키마
	db, err := bootstrap.OpenDB(cfg, gormlogger.Warn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Redis 연결 (없으면 캐시/큐/rate limit 비활성)
	redisClient, err := pkgredis.NewClient(pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}, cfg.Reminders.PollTimeout)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache and reminders")
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s3Client := bootstrap.NewObjectStore(cfg)
	indexer := bootstrap.NewEntryIndexer(ctx, cfg)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn, cfg.JWT.RefreshIn)

	// Services
	users := repository.NewUserRepository(db)
	journals := repository.NewJournalRepository(db)
	tags := repository.NewTagRepository(db)
	entries := repository.NewEntryRepository(db)

	entryService := service.NewEntryService(db)
	entryService.SetCache(pkgcache.NewService(redisClient))

	var objectStore service.ObjectStorage
	if s3Client != nil {
		objectStore = s3Client
		entryService.SetObjectRemover(s3Client)
	}
	if indexer != nil {
		entryService.SetIndexer(indexer)
	}
	retention := bootstrap.NewRetentionService(db, cfg, s3Client, indexer)

	// SMTP (인증 메일 + 리마인더 발송)
	var m *mailer.Mailer
	var authOpts []service.AuthOption
	if cfg.Mail.Enabled {
		m = mailer.New(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			AppURL:   cfg.Mail.AppURL,
		})
		authOpts = append(authOpts, service.WithVerificationMailer(m))
	} else if !cfg.Server.AutoVerifyUsers {
		log.Warn().Msg("mail disabled and auto_verify_users off: verification tokens are stored but not sent")
	}
	authService := service.NewAuthService(users, repository.NewVerificationTokenRepository(db), jwtManager, cfg.Server.AutoVerifyUsers, authOpts...)

	h := routes.Handlers{
		Auth:    handler.NewAuthHandler(authService, !cfg.IsDevelopment(), int(cfg.JWT.RefreshIn.Seconds())),
		Journal: handler.NewJournalHandler(service.NewJournalService(users, journals)),
		Entry:   handler.NewEntryHandler(entryService),
		Tag:     handler.NewTagHandler(service.NewTagService(users, tags, entries)),
		Media:   handler.NewMediaHandler(service.NewMediaService(db, objectStore, cfg.Storage.MaxFileSize)),
	}

	// Background jobs
	sched := scheduler.New(time.Minute)
	if err := sched.RegisterDaily("retention-purge", cfg.Retention.PurgeAt, func(ctx context.Context) error {
		_, err := retention.Purge(ctx)
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid retention schedule")
	}
	sched.Register("db-stats", time.Minute, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		middleware.SetDBConnectionsOpen(sqlDB.Stats().OpenConnections)
		return nil
	})
	if cfg.Reminders.Enabled {
		startReminders(ctx, cfg, sched, redisClient, m, users, entries)
	}
	sched.Start(ctx)

	// Gin 라우터
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.SplitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler(db, redisClient))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, h, jwtManager, routes.Options{
		RedisClient:        redisClient,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	sched.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// startReminders registers the reminder producers (daily at reminders.send_at
// UTC) and starts the email consumer. Both sides need Redis.
func startReminders(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, redisClient *redis.Client, m *mailer.Mailer, users repository.UserRepository, entries repository.EntryRepository) {
	log := pkglogger.WithComponent("reminders")
	if redisClient == nil {
		log.Warn().Msg("reminders enabled but Redis is unavailable, skipping")
		return
	}

	reminders := service.NewReminderService(users, entries, messaging.NewProducer(redisClient))
	jobs := map[string]scheduler.Handler{
		domain.QueueMonthlyReminders: func(ctx context.Context) error {
			_, err := reminders.SendMonthlyReminders(ctx)
			return err
		},
		domain.QueueMemoryLaneReminders: func(ctx context.Context) error {
			_, err := reminders.SendMemoryLaneReminders(ctx)
			return err
		},
		domain.QueueAnniversaryReminders: func(ctx context.Context) error {
			_, err := reminders.SendAnniversaryReminders(ctx)
			return err
		},
	}
	for _, name := range []string{domain.QueueMonthlyReminders, domain.QueueMemoryLaneReminders, domain.QueueAnniversaryReminders} {
		if err := sched.RegisterDaily(name, cfg.Reminders.SendAt, jobs[name]); err != nil {
			log.Error().Err(err).Str("task", name).Msg("reminder task not scheduled")
		}
	}

	if m == nil {
		log.Warn().Msg("mail disabled, reminder messages stay queued")
		return
	}
	go messaging.NewConsumer(redisClient, m, cfg.Reminders.PollTimeout).Run(ctx)
}

// healthHandler reports DB and Redis reachability
func healthHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "disabled"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unreachable"
			}
		}

		c.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"service": "journal-backend",
			"checks":  checks,
			"time":    time.Now().Unix(),
		})
	}
}
