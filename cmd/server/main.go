package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exitravels/backoffice/internal/config"
	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/handler"
	"github.com/exitravels/backoffice/internal/logging"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/notify"
	"github.com/exitravels/backoffice/internal/repository"
	"github.com/exitravels/backoffice/internal/service"
	"github.com/exitravels/backoffice/internal/stream"
	"github.com/exitravels/backoffice/pkg/auth"
	"github.com/exitravels/backoffice/pkg/fcm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	reservationRepo, err := repository.NewPgCollectionRepository(pool, model.CollectionReservations)
	if err != nil {
		logging.Fatal("reservation repository", "error", err)
	}
	messageRepo, err := repository.NewPgCollectionRepository(pool, model.CollectionMessages)
	if err != nil {
		logging.Fatal("message repository", "error", err)
	}
	adminRepo := repository.NewPgAdminRepository(pool)

	authService := service.NewAuthService(adminRepo)
	commandService := service.NewCommandService(reservationRepo, messageRepo)
	adapter := stream.NewAdapter(reservationRepo, messageRepo)

	// 管理者ごとのダッシュボードセッション
	registry := dashboard.NewRegistry(ctx, func() dashboard.Config {
		return dashboard.Config{
			Adapter:              adapter,
			Commands:             commandService,
			Location:             cfg.Location(),
			NoticeTTL:            cfg.NoticeTTL,
			NotificationsGranted: cfg.NotificationsGranted,
		}
	}, dashboard.WithSessionTTL(auth.SessionTTL))
	defer registry.CloseAll()

	// バックグラウンド通知（未設定のチャネルは無効）
	senders, closeSenders := pushSenders(ctx, cfg)
	defer closeSenders()
	watcher := dashboard.NewArrivalWatcher(adapter, notify.NewDispatcher(append(senders,
		notify.WithPermission(notify.Granted),
		notify.WithSender("log", notify.LogSender{}),
	)...))
	var bg sync.WaitGroup
	bg.Add(2)
	go func() {
		defer bg.Done()
		watcher.Run(ctx)
	}()
	// サインアウトせずに期限切れになったセッションの購読を解放する
	go func() {
		defer bg.Done()
		registry.RunReaper(ctx, time.Minute)
	}()

	sessionSecret := auth.SessionSecretBytes(cfg.SessionSecret)
	requireAuth := auth.RequireAuth(sessionSecret)
	loginThrottle := handler.NewLoginThrottle(cfg.LoginMaxFailures, cfg.LoginLockout, ctx.Done())

	h := handler.New(pool, watcher, cfg.FrontendURL)
	authHandler := handler.NewAuthHandler(authService, registry, handler.AuthConfig{
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  cfg.Production(),
	})
	reservationHandler := handler.NewReservationHandler(registry, cfg.Location())
	messageHandler := handler.NewMessageHandler(registry)
	dashboardHandler := handler.NewDashboardHandler(registry)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// 認証
	mux.Handle("POST /api/auth/login", loginThrottle.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(authHandler.Me)))

	// 予約
	mux.Handle("GET /api/admin/reservations", requireAuth(http.HandlerFunc(reservationHandler.List)))
	mux.Handle("GET /api/admin/reservations/trash", requireAuth(http.HandlerFunc(reservationHandler.Trash)))
	mux.Handle("GET /api/admin/reservations/export.csv", requireAuth(http.HandlerFunc(reservationHandler.Export)))
	mux.Handle("PATCH /api/admin/reservations/{id}/status", requireAuth(http.HandlerFunc(reservationHandler.PatchStatus)))
	mux.Handle("POST /api/admin/reservations/{id}/delete", requireAuth(http.HandlerFunc(reservationHandler.SoftDelete)))
	mux.Handle("POST /api/admin/reservations/{id}/restore", requireAuth(http.HandlerFunc(reservationHandler.Restore)))
	mux.Handle("DELETE /api/admin/reservations/{id}", requireAuth(http.HandlerFunc(reservationHandler.HardDelete)))

	// メッセージ
	mux.Handle("GET /api/admin/messages", requireAuth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("GET /api/admin/messages/trash", requireAuth(http.HandlerFunc(messageHandler.Trash)))
	mux.Handle("POST /api/admin/messages/{id}/read", requireAuth(http.HandlerFunc(messageHandler.MarkRead)))
	mux.Handle("POST /api/admin/messages/{id}/delete", requireAuth(http.HandlerFunc(messageHandler.SoftDelete)))
	mux.Handle("POST /api/admin/messages/{id}/restore", requireAuth(http.HandlerFunc(messageHandler.Restore)))
	mux.Handle("DELETE /api/admin/messages/{id}", requireAuth(http.HandlerFunc(messageHandler.HardDelete)))

	// セッション状態
	mux.Handle("PUT /api/admin/selection", requireAuth(http.HandlerFunc(dashboardHandler.Select)))
	mux.Handle("GET /api/admin/notices", requireAuth(http.HandlerFunc(dashboardHandler.Notices)))
	mux.Handle("PUT /api/admin/notifications", requireAuth(http.HandlerFunc(dashboardHandler.Notifications)))
	mux.Handle("GET /api/admin/events", requireAuth(http.HandlerFunc(dashboardHandler.Events)))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.RequestLogger(handler.Metrics(handler.SecurityHeaders(h.CORS(mux)))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown error", "error", err)
	}
	registry.CloseAll()
	bg.Wait()
}

// pushSenders connects the configured background channels. The returned
// function closes them.
func pushSenders(ctx context.Context, cfg config.App) ([]notify.Option, func()) {
	var opts []notify.Option
	var closers []func() error

	if cfg.AMQPURL != "" {
		p, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("amqp disabled", "error", err)
		} else {
			opts = append(opts, notify.WithSender("amqp", p))
			closers = append(closers, p.Close)
		}
	}
	if cfg.RedisURL != "" {
		p, err := notify.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			slog.Warn("redis disabled", "error", err)
		} else {
			opts = append(opts, notify.WithSender("redis", p))
			closers = append(closers, p.Close)
		}
	}
	if cfg.FCMProjectID != "" {
		creds, err := os.ReadFile(cfg.FCMCredentialsFile)
		if err != nil {
			slog.Warn("fcm disabled", "error", err)
		} else if client, err := fcm.NewClientFromCredentials(ctx, cfg.FCMProjectID, creds); err != nil {
			slog.Warn("fcm disabled", "error", err)
		} else {
			opts = append(opts, notify.WithSender("fcm", notify.NewFCMSender(client, cfg.FCMTopic)))
		}
	}

	return opts, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("close push channel", "error", err)
			}
		}
	}
}
