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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"

	"github.com/dharz/dharz-ai/internal/config"
	"github.com/dharz/dharz-ai/internal/domain/chat"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/infrastructure/auth"
	"github.com/dharz/dharz-ai/internal/infrastructure/database"
	"github.com/dharz/dharz-ai/internal/infrastructure/database/repository/chatrepo"
	"github.com/dharz/dharz-ai/internal/infrastructure/database/repository/userrepo"
	"github.com/dharz/dharz-ai/internal/infrastructure/imagefetch"
	"github.com/dharz/dharz-ai/internal/infrastructure/inference"
	"github.com/dharz/dharz-ai/internal/infrastructure/logger"
	"github.com/dharz/dharz-ai/internal/infrastructure/observability"
	"github.com/dharz/dharz-ai/internal/infrastructure/websearch"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/adminhandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/historyhandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/handlers/sharehandler"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/middlewares"
	authroute "github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/auth"
	"github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/public"
	v1 "github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1"
	adminroute "github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/admin"
	chatroute "github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/chat"
	chatsroute "github.com/dharz/dharz-ai/internal/interfaces/httpserver/routes/v1/chats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	users := user.NewService(userrepo.NewUserGormRepository(db))
	chats := chat.NewService(chatrepo.NewChatGormRepository(db))
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenIssuer, cfg.TokenAudience)

	completion := inference.NewChatCompletionClient(resty.New(), cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatTimeout)
	search := websearch.NewClient(resty.New().SetTimeout(cfg.SearchTimeout), cfg.TavilyEndpoint, cfg.TavilyAPIKey)
	resolver := imagefetch.NewResolver(cfg.ImageFetchTimeout, cfg.ImageFetchMaxSize, log)

	initializer := &dataInitializer{users: users, log: log}
	if err := initializer.Install(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("install bootstrap data")
	}

	requireAuth := middlewares.AuthMiddleware(tokens, users, log)
	optionalAuth := middlewares.OptionalAuthMiddleware(tokens, users, log)

	v1Route := v1.NewV1Route(
		authroute.NewAuthRoute(authhandler.NewAuthHandler(users, tokens), requireAuth),
		chatroute.NewChatRoute(chathandler.NewChatHandler(chats, completion, search, resolver, cfg.ChatModel), optionalAuth),
		chatsroute.NewChatsRoute(historyhandler.NewHistoryHandler(chats), sharehandler.NewShareHandler(chats), requireAuth),
		adminroute.NewAdminRoute(adminhandler.NewUsersHandler(users), requireAuth),
		public.NewPublicShareRoute(sharehandler.NewShareHandler(chats)),
	)
	server := httpserver.NewHTTPServer(v1Route, cfg, log)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("starting http server")
		return server.Run(egCtx)
	})
	eg.Go(func() error {
		return runMetricsServer(egCtx, cfg.MetricsPort)
	})

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

// runMetricsServer serves Prometheus metrics on a separate port so the
// scrape endpoint stays off the public listener.
func runMetricsServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
