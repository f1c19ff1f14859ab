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

	vipgin "github.com/PaulFidika/vipbridge/adapters/gin"
	discordbot "github.com/PaulFidika/vipbridge/adapters/discord"
	"github.com/PaulFidika/vipbridge/apikey"
	"github.com/PaulFidika/vipbridge/config"
	"github.com/PaulFidika/vipbridge/core"
	"github.com/PaulFidika/vipbridge/logging"
	"github.com/PaulFidika/vipbridge/metrics"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and the Discord bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "vipbridge"})
	log.WithField("version", Version).Info("starting vipbridge")

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := openStore(ctx, cfg, rdb, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("entitlement store close failed")
		}
	}()

	limiter, memLimiter := buildLimiter(cfg, rdb)

	bot, err := discordbot.New(discordbot.Config{Token: cfg.DiscordToken, GuildID: cfg.GuildID}, log)
	if err != nil {
		return err
	}
	svc, err := core.NewService(core.Config{
		GuildID:        cfg.GuildID,
		VIPRoleID:      cfg.VIPRoleID,
		VerifiedRoleID: cfg.VerifiedRoleID,
		Stages:         cfg.GrantStages,
	}, bot.Members(), store,
		core.WithAudit(core.MultiAudit{core.LogrusAudit{Log: log}, metrics.GrantAudit{}}),
		core.WithRateLimiter(limiter),
		core.WithLogger(log),
	)
	if err != nil {
		return err
	}

	verifier := apikey.NewVerifier(cfg.WebhookAPIKey)
	if !verifier.Enabled() {
		log.Warn("VIP_WEBHOOK_API_KEY is not set, /update-vip accepts unauthenticated requests")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: vipgin.NewRouter(vipgin.Options{
			Store:       store,
			Verifier:    verifier,
			AuthHeader:  cfg.WebhookAuthHeader,
			RateLimiter: limiter,
			Logger:      log,
			Metrics:     true,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	refresher, err := metrics.NewGaugeRefresher(cfg.MetricsRefreshSpec, store, log)
	if err != nil {
		return fmt.Errorf("METRICS_REFRESH_SPEC: %w", err)
	}

	if err := bot.Start(svc); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	refresher.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	if memLimiter != nil {
		g.Go(func() error {
			t := time.NewTicker(time.Minute)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					memLimiter.Prune()
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("webhook server shutdown")
		}
		refresher.Stop(sctx)
		if err := bot.Close(); err != nil {
			log.WithError(err).Warn("discord session close")
		}
		return nil
	})
	return g.Wait()
}
