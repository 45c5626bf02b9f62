package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/catalog"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/logging"
	"bookcatalog/internal/metrics"
	synchub "bookcatalog/internal/sync"
	"bookcatalog/pkg/database"
	"bookcatalog/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	log := logging.Init(cfg.Log())
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	db := database.MustOpen(cfg.DB())
	defer db.Close()

	repo := catalog.NewRepo(db)
	if err := repo.Initialize(context.Background()); err != nil {
		log.Error("initialize catalog", slog.Any("err", err))
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(httpx.RequestID(), httpx.Recovery(log), httpx.AccessLog(log), metrics.Middleware())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start TCP sync first (so you notice binding errors early)
	hub := synchub.NewHub()
	router.GET("/ws", synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(cfg.Server.SyncAddr, hub)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Database.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Auth
	editor := auth.Editor{
		Username:     cfg.Auth.EditorUser,
		PasswordHash: cfg.Auth.EditorPasswordHash,
	}
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration(),
	}
	guard := auth.RequireEditor(editor, tokenSvc)

	authGroup := router.Group("/auth")
	auth.NewHandler(editor, tokenSvc).RegisterRoutes(authGroup)
	authGroup.GET("/me", guard, func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusOK, gin.H{"auth": "disabled"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"username":   claims.Username,
			"expires_at": claims.ExpiresAt.Time,
		})
	})

	if editor.Enabled() {
		if cfg.Auth.JWTSecret == utils.DevJWTSecret {
			log.Warn("editor auth uses the development JWT secret; set " + utils.EnvJWTSecret)
		}
	} else {
		log.Warn("no editor password hash configured; catalog changes are open to every client")
	}

	// Catalog (reads public, writes guarded)
	catalog.NewHandler(repo, hub).RegisterRoutes(router.Group(""), guard)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http api listening", slog.String("addr", cfg.Server.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", slog.Any("err", err))
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.Any("err", err))
	}
	if err := tcpSrv.Close(); err != nil {
		log.Error("tcp shutdown", slog.Any("err", err))
	}
	hub.Close()

	wg.Wait()
	log.Info("servers stopped")
}
