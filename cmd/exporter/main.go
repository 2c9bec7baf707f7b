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

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/arvarik/withings-go/withings"
)

var (
	consumerKey       = kingpin.Flag("consumer-key", "Withings application consumer key.").Envar("WITHINGS_CONSUMER_KEY").Required().String()
	consumerSecret    = kingpin.Flag("consumer-secret", "Withings application consumer secret.").Envar("WITHINGS_CONSUMER_SECRET").Required().String()
	accessToken       = kingpin.Flag("access-token", "OAuth access token.").Envar("WITHINGS_ACCESS_TOKEN").Required().String()
	accessTokenSecret = kingpin.Flag("access-token-secret", "OAuth access token secret.").Envar("WITHINGS_ACCESS_TOKEN_SECRET").Required().String()
	userID            = kingpin.Flag("user-id", "Withings user ID.").Envar("WITHINGS_USER_ID").Required().String()
	callbackURL       = kingpin.Flag("callback-url", "Public URL of /notify; subscribes to weight and heart notifications when set.").Envar("WITHINGS_CALLBACK_URL").String()
	listenAddress     = kingpin.Flag("web.listen-address", "Address to listen on for metrics and notifications.").Default(":9101").String()
	interval          = kingpin.Flag("refresh-interval", "How often to poll the API.").Default("15m").Duration()
	lookback          = kingpin.Flag("lookback", "How far back to look for the latest measures.").Default("720h").Duration()
	rateLimit         = kingpin.Flag("rate-limit", "Maximum API requests per minute; 0 disables limiting.").Default(fmt.Sprint(withings.DefaultRateLimit)).Int()
	debug             = kingpin.Flag("debug", "Enable debug logging.").Bool()
)

func main() {
	kingpin.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client, err := withings.NewClient(
		withings.Credentials{ConsumerKey: *consumerKey, ConsumerSecret: *consumerSecret},
		withings.WithAccessToken(*accessToken, *accessTokenSecret),
		withings.WithUserID(*userID),
		withings.WithRateLimit(*rateLimit),
		withings.WithLogger(logger.Named("withings")),
	)
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := newMetrics()
	reg := prometheus.NewRegistry()
	m.register(reg)

	trigger := make(chan struct{}, 1)
	p := &poller{client: client, metrics: m, lookback: *lookback, logger: logger, now: time.Now}

	if *callbackURL != "" {
		subscribe(ctx, client, *callbackURL, logger)
	}

	server := &http.Server{
		Addr:              *listenAddress,
		Handler:           newRouter(reg, trigger, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.run(gctx, *interval, trigger)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", *listenAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("exporter stopped", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// subscribe registers callbackURL for weight and heart notifications.
// Failures are logged; polling keeps the gauges current regardless.
func subscribe(ctx context.Context, client *withings.Client, callbackURL string, logger *zap.Logger) {
	for _, appli := range []withings.Appli{withings.AppliWeight, withings.AppliHeart} {
		if _, err := client.Notify.Create(ctx, callbackURL, "withings-exporter", appli, nil); err != nil {
			logger.Error("failed to subscribe", zap.Int("appli", int(appli)), zap.Error(err))
			continue
		}
		logger.Info("subscribed", zap.Int("appli", int(appli)), zap.String("callback", callbackURL))
	}
}
