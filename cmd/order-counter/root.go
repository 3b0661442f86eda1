package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Sternrassler/domain-order-counter/internal/config"
	"github.com/Sternrassler/domain-order-counter/pkg/cache"
	"github.com/Sternrassler/domain-order-counter/pkg/client"
	"github.com/Sternrassler/domain-order-counter/pkg/logging"
	"github.com/Sternrassler/domain-order-counter/pkg/runner"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	out    io.Writer
	in     io.Reader
	logger zerolog.Logger

	redis *redis.Client
}

type rootOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	var opts rootOptions
	a := &app{out: out, in: in}

	root := &cobra.Command{
		Use:           "order-counter",
		Short:         "Count orders on every domain of the order directory",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = opts.metricsAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logCfg := cfg.LogConfig()
			logCfg.Output = cmd.ErrOrStderr()
			logging.Setup(logCfg)

			a.cfg = cfg
			a.logger = logging.NewLogger("cli")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetOut(out)
	root.SetIn(in)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (yaml); environment only when empty")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during a run")

	root.AddCommand(runCmd(a), domainsCmd(a))
	return root
}

// newClient creates the order endpoint client.
func (a *app) newClient() (*client.Client, error) {
	c, err := client.New(a.cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// connectCache returns a cache manager, or nil when Redis is not configured
// or not reachable. Counting never depends on the cache.
func (a *app) connectCache(ctx context.Context) *cache.Manager {
	if !a.cfg.CacheEnabled() {
		return nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})

	manager := cache.NewManager(a.redis)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := manager.Ping(pingCtx); err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.Redis.Addr).Msg("Cache unavailable, continuing without it")
		_ = a.redis.Close()
		a.redis = nil
		return nil
	}

	a.logger.Info().Str("addr", a.cfg.Redis.Addr).Msg("Connected to Redis")
	return manager
}

// domainSource wraps c with the cache when one is available.
func (a *app) domainSource(c *client.Client, manager *cache.Manager) cache.DomainLister {
	if manager == nil {
		return c
	}
	return cache.NewCachedLister(c, manager, a.cfg.Redis.DomainsTTL)
}

// history returns the previous-result store, or nil without a cache.
func (a *app) history(manager *cache.Manager) runner.History {
	if manager == nil {
		return nil
	}
	return cache.NewResultStore(manager)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}
