package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/odrpress/go-session-server/auth"
	"github.com/odrpress/go-session-server/internal/config"
	"github.com/odrpress/go-session-server/postgres"
	"github.com/odrpress/go-session-server/server"
	"github.com/odrpress/go-session-server/sessionhint"
	"github.com/odrpress/go-session-server/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg)
	displayAppname(cfg.GetAppName())

	db, err := postgres.Open(cfg.GetDatabaseURL())
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	repositories := postgres.NewRepositories(db)

	issuer, err := token.NewIssuer(cfg.GetJWTSecret())
	if err != nil {
		return err
	}

	repos := auth.Repos{
		Principals: repositories.Principals,
		Sessions:   repositories.Sessions,
	}

	options := []auth.ServiceOption{}
	if cfg.SlidingSessions() {
		options = append(options, auth.WithSlidingSessions())
	}
	authService, err := auth.NewService(repos, issuer, cfg.GetSessionTTL(), options...)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	})
	defer redisClient.Close()
	hints := sessionhint.NewRedisStore(redisClient, cfg.GetHintTTL())

	srv, err := server.New(cfg, authService, repos, hints, server.DefaultAudiences())
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go runSessionJanitor(janitorCtx, authService, cfg.GetJanitorInterval())

	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// runSessionJanitor periodically prunes expired registry rows. This is
// infrastructure hygiene, not part of the request-path authorization core.
func runSessionJanitor(ctx context.Context, authService *auth.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.CleanupExpiredSessions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session janitor sweep failed")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("expired sessions pruned")
			}
		}
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
