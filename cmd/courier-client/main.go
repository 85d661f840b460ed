package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-io/courier"
	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	path := flag.String("config", "./config/dev.yaml", "Path to config file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMicro}).With().Timestamp().Logger()

	cfg, err := LoadConfig(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("load config")
	}
	log = log.Level(cfg.Level())

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("exit")
	}
}

func run(cfg *Config, log zerolog.Logger) error {
	opts, err := cfg.ConnectOptions()
	if err != nil {
		return err
	}
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(context.Background())

	var c *courier.Client
	c, err = courier.New(
		courier.WithLogger(log),
		courier.WithStore(st),
		courier.WithBackoff(courier.Backoff{Base: cfg.Backoff.Base, Max: cfg.Backoff.Max, Jitter: cfg.Backoff.Jitter}),
		courier.WithEventHandler(courier.EventHandlerFunc(func(e courier.Event) {
			log.Info().Stringer("event", e).Str("server", e.Server.String()).Msg("connectivity")
			if e.Kind == courier.EventConnectSuccess && len(cfg.Subscribe) > 0 {
				if err := c.Subscribe(cfg.Subscribe...); err != nil {
					log.Error().Err(err).Msg("subscribe")
				}
			}
		})),
		courier.WithAuthFailureHandler(courier.AuthFailureHandlerFunc(func(err error) {
			log.Error().Err(err).Msg("credentials rejected, giving up")
		})),
	)
	if err != nil {
		_ = st.Close()
		return err
	}
	defer c.Close()

	c.AddGlobalMessageListener(courier.MessageListenerFunc(func(m courier.Message) {
		log.Info().Str("topic", m.Topic).Uint8("qos", uint8(m.QoS)).Bool("dup", m.Duplicate).Bytes("payload", m.Payload).Msg("message")
	}))

	if err := c.Connect(opts); err != nil {
		return err
	}

	group.Go(func() error {
		if cfg.Publish.Topic == "" || cfg.Publish.Interval <= 0 {
			return nil
		}
		tick := time.NewTicker(cfg.Publish.Interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-tick.C:
				payload := []byte(now.Format("2006-01-02 15:04:05"))
				if err := c.Publish(cfg.Publish.Topic, payload, cfg.Publish.QoS, false); err != nil {
					log.Warn().Err(err).Str("topic", cfg.Publish.Topic).Msg("publish")
				}
			}
		}
	})

	group.Go(func() error {
		if cfg.HTTP.URL == "" {
			return nil
		}
		return httpd(ctx, cfg.HTTP.URL, log)
	})

	group.Go(func() error {
		ignore := make(chan os.Signal, 1)
		sign := make(chan os.Signal, 1)

		signal.Notify(ignore, syscall.SIGHUP) // 终端挂起或者控制进程终止(hang up)
		signal.Notify(sign, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-sign:
			log.Info().Stringer("signal", sig).Msg("shutting down")
			if err := c.Disconnect(); err != nil {
				log.Warn().Err(err).Msg("disconnect")
			}
			return fmt.Errorf("got sign: %s", sig)
		}
	})
	return group.Wait()
}

// httpd serves /metrics and pprof until ctx ends.
func httpd(ctx context.Context, url string, log zerolog.Logger) error {
	if err := courier.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	mux := requests.NewServeMux(requests.URL(url), requests.Logf(func(ctx context.Context, stat *requests.Stat) {
		log.Debug().Msg(stat.Print())
	}))
	mux.Route("/metrics", promhttp.Handler())
	mux.Pprof()
	s := requests.NewServer(ctx, mux, requests.OnStart(func(s *http.Server) {
		log.Info().Str("addr", s.Addr).Msg("http serve")
	}))
	return s.ListenAndServe()
}
