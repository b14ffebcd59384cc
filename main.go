package main

import (
	"context"
	"mediacat/config"
	"mediacat/db"
	"mediacat/handlers"
	"mediacat/models"
	"mediacat/processing"
	"mediacat/service"
	"mediacat/storage"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 365 * 86400 // 1 year
)

func newLogger() *zap.Logger {
	var log *zap.Logger
	var err error
	if config.DEBUG_MODE {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	db.Init()
	if err := models.Migrate(db.Instance); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	ctx := context.Background()
	stores := storage.NewRegistry(config.StoragePath(), time.Duration(config.URL_TTL_SECONDS)*time.Second, log)
	proc := processing.NewProcessor(db.Instance, stores, processing.ExecRunner{}, log)
	queue := processing.NewQueue(proc, config.WORKERS, config.TEST_MODE, log)
	queue.Start(ctx)
	defer queue.Stop()
	// Pick up whatever an earlier run left unfinished
	if err := queue.Sweep(ctx); err != nil {
		log.Error("startup sweep failed", zap.Error(err))
	}
	if err := queue.Schedule(ctx, config.SWEEP_SCHEDULE); err != nil {
		log.Fatal("invalid sweep schedule", zap.String("schedule", config.SWEEP_SCHEDULE), zap.Error(err))
	}
	svc := service.New(db.Instance, stores, queue, config.MIN_FREE_SPACE_MB, log)

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(handlers.ErrorLogMiddleware(log))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "PUT", "PATCH", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: sessionExpirationTime, HttpOnly: true})
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/media/[^/]+/(thumb|download)`})))
	}
	handlers.New(svc, log).Register(router)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Error("server stopped", zap.Error(err))
}
