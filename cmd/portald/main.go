package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/auth"
	"github.com/jrsteele09/go-portal-session/bridge"
	"github.com/jrsteele09/go-portal-session/internal/config"
	"github.com/jrsteele09/go-portal-session/metrics"
	"github.com/jrsteele09/go-portal-session/permissions"
	"github.com/jrsteele09/go-portal-session/portal"
	"github.com/jrsteele09/go-portal-session/prefs"
	"github.com/jrsteele09/go-portal-session/prefs/prefsfakes"
	"github.com/jrsteele09/go-portal-session/prefs/redisprefs"
	"github.com/jrsteele09/go-portal-session/sessions"
	"github.com/jrsteele09/go-portal-session/sessions/devsession"
	"github.com/jrsteele09/go-portal-session/subscription"
	"github.com/jrsteele09/go-portal-session/tenants"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("portald failed")
	}
	log.Info().Msg("portald stopped")
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
		return fmt.Errorf("config.Load: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	displayAppname(cfg.AppName)

	shell, err := buildShell(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, err := shell.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("shell.Bootstrap: %w", err)
	}
	logger.Info().Stringer("status", status).Msg("bootstrap finished")

	server := &http.Server{Addr: cfg.ListenAddr, Handler: newMux(shell)}
	go listenAndServe(logger, server)
	waitForStopSignal()
	return shutdown(server)
}

func buildShell(cfg *config.Config, logger zerolog.Logger) (*portal.Shell, error) {
	api, err := apiclient.New(cfg.BFFBaseURL, apiclient.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("apiclient.New: %w", err)
	}

	provider, err := buildProvider(cfg, api, logger)
	if err != nil {
		return nil, err
	}

	sessionMetrics := metrics.NewSessionMetrics()
	coordinator, err := auth.NewCoordinator(provider, auth.AlwaysActiveEnvironment{},
		auth.WithLogger(logger),
		auth.WithRecorder(sessionMetrics),
		auth.WithRefreshThreshold(cfg.RefreshThreshold),
		auth.WithMaxCheckInterval(cfg.MaxCheckInterval),
		auth.WithIdleTimeout(cfg.IdleTimeout),
		auth.WithVisibilityDebounce(cfg.VisibilityDebounce),
		auth.WithMaxFailures(cfg.MaxConsecutiveFailures),
	)
	if err != nil {
		return nil, fmt.Errorf("auth.NewCoordinator: %w", err)
	}

	resolver, err := tenants.NewResolver(api, cfg.BaseDomain, tenants.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("tenants.NewResolver: %w", err)
	}

	permResolver, err := permissions.NewResolver(api, permissions.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("permissions.NewResolver: %w", err)
	}

	gate, err := subscription.NewGate(api, subscription.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("subscription.NewGate: %w", err)
	}

	hostname := cfg.Hostname
	if hostname == "" {
		hostname = cfg.BaseDomain
	}

	shell, err := portal.New(portal.Components{
		API:          api,
		Provider:     provider,
		Coordinator:  coordinator,
		Tenants:      resolver,
		Binder:       bridge.New(api, bridge.WithLogger(logger)),
		Permissions:  permResolver,
		Subscription: gate,
		Prefs:        buildPrefs(cfg, logger),
	}, hostname, portal.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("portal.New: %w", err)
	}
	return shell, nil
}

// buildProvider selects the identity strategy once at startup: the real BFF
// session client, or the in-memory dev provider.
func buildProvider(cfg *config.Config, api *apiclient.Client, logger zerolog.Logger) (sessions.Provider, error) {
	if !cfg.DevMode {
		endpoints := sessions.Endpoints{
			Session: cfg.SessionPath,
			Refresh: cfg.RefreshPath,
			CSRF:    cfg.CSRFPath,
			Login:   cfg.LoginPath,
			Logout:  cfg.LogoutPath,
		}
		return sessions.NewClient(api, endpoints, cfg.OAuthClientID, sessions.WithLogger(logger))
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}
	hash, err := devsession.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("devsession.HashPassword: %w", err)
	}

	devUser := devsession.User{
		ID:           "dev-user",
		Email:        "dev@" + cfg.BaseDomain,
		DisplayName:  "Dev User",
		Roles:        []string{"owner"},
		TenantID:     "dev-tenant",
		TenantSlug:   "dev",
		PasswordHash: hash,
	}

	signingKey := make([]byte, 32)
	if _, err := rand.Read(signingKey); err != nil {
		return nil, fmt.Errorf("signing key generation: %w", err)
	}

	provider, err := devsession.New([]devsession.User{devUser}, signingKey)
	if err != nil {
		return nil, fmt.Errorf("devsession.New: %w", err)
	}
	if err := provider.Login(devUser.Email, password); err != nil {
		return nil, fmt.Errorf("dev login: %w", err)
	}

	logger.Warn().
		Str("email", devUser.Email).
		Str("password", password).
		Msg("DEV MODE: in-memory identity provider active, credentials above are ephemeral")
	return provider, nil
}

func buildPrefs(cfg *config.Config, logger zerolog.Logger) prefs.Store {
	if cfg.RedisAddr == "" {
		return prefsfakes.NewFakeStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return redisprefs.New(client, redisprefs.WithLogger(logger))
}

func newMux(shell *portal.Shell) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !shell.Ready() {
			http.Error(w, shell.Status().String(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ready")
	})
	return mux
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func listenAndServe(logger zerolog.Logger, server *http.Server) {
	logger.Info().Str("addr", server.Addr).Msg("portald listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("password generation: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
