// Package cli is the atsctl command tree: a terminal client for the hiretrack
// API that keeps an offline queue of mutations.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/kiranshivaraju/hiretrack/internal/client"
	"github.com/kiranshivaraju/hiretrack/internal/offline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyConfig     = "config"
	keyAPIURL     = "api_url"
	keyRedisURL   = "redis_url"
	keyQueueName  = "queue_name"
	keyMaxRetries = "max_retries"
	keyTimeout    = "timeout"
	keyOffline    = "offline"
	keyQueue      = "queue"
	keyVerbose    = "verbose"
)

// app carries what every command needs. The client and queue are built on
// first use so that commands like --help stay offline.
type app struct {
	v      *viper.Viper
	cache  cache.Cache
	closer io.Closer

	api   *client.HTTPClient
	queue *offline.Queue
}

type Option func(*app)

// WithCache makes the queue use c instead of dialing redis_url.
func WithCache(c cache.Cache) Option {
	return func(a *app) { a.cache = c }
}

// NewRootCmd builds the atsctl command tree with its own viper instance.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{v: viper.New()}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "atsctl",
		Short: "Command-line client for the hiretrack API",
		Long: `atsctl drives the hiretrack mock ATS API: jobs, candidates, assessments
and the activity feed. Mutations made with --offline or --queue are stored in
the offline queue and replayed by "atsctl queue drain".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringP(keyConfig, "c", "", "config file (YAML)")
	pf.String("api-url", "http://localhost:8080", "base URL of the hiretrack API")
	pf.String("redis-url", "", "redis URL holding the offline queue")
	pf.String("queue-name", "default", "offline queue name")
	pf.Int("max-retries", offline.MaxRetries, "replay attempts before a queued mutation is dropped")
	pf.Duration(keyTimeout, 10*time.Second, "per-request timeout")
	pf.Bool(keyOffline, false, "queue mutations instead of sending them")
	pf.Bool(keyQueue, false, "queue this mutation even while online")
	pf.BoolP(keyVerbose, "v", false, "log at debug level")

	for key, flag := range map[string]string{
		keyConfig:     keyConfig,
		keyAPIURL:     "api-url",
		keyRedisURL:   "redis-url",
		keyQueueName:  "queue-name",
		keyMaxRetries: "max-retries",
		keyTimeout:    keyTimeout,
		keyOffline:    keyOffline,
		keyQueue:      keyQueue,
		keyVerbose:    keyVerbose,
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newJobsCmd(a),
		newCandidatesCmd(a),
		newAssessmentsCmd(a),
		newActivityCmd(a),
		newQueueCmd(a),
		newHealthCmd(a),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("ATSCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if cfgFile := a.v.GetString(keyConfig); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	level := slog.LevelWarn
	if a.v.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// client returns the API client, with the offline queue attached when one is
// configured.
func (a *app) client(ctx context.Context) (*client.HTTPClient, error) {
	if a.api != nil {
		return a.api, nil
	}
	opts := []client.Option{}
	q, err := a.offlineQueue(ctx)
	switch {
	case err == nil:
		opts = append(opts, client.WithOfflineQueue(q))
	case errors.Is(err, errNoQueue):
		if a.v.GetBool(keyOffline) || a.v.GetBool(keyQueue) {
			return nil, fmt.Errorf("--offline and --queue need redis_url to keep the queue")
		}
	default:
		return nil, err
	}
	a.api = client.New(a.v.GetString(keyAPIURL), a.v.GetDuration(keyTimeout), opts...)
	return a.api, nil
}

var errNoQueue = errors.New("no offline queue configured; set redis_url")

func (a *app) offlineQueue(ctx context.Context) (*offline.Queue, error) {
	if a.queue != nil {
		return a.queue, nil
	}
	if a.cache == nil {
		url := a.v.GetString(keyRedisURL)
		if url == "" {
			return nil, errNoQueue
		}
		rc, err := cache.NewRedisCache(url)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.cache, a.closer = rc, rc
	}
	a.queue = offline.New(a.cache, a.v.GetString(keyQueueName), offline.WithMaxRetries(a.v.GetInt(keyMaxRetries)))
	if a.v.GetBool(keyOffline) {
		a.queue.SetOnline(ctx, false)
	}
	return a.queue, nil
}

// mutationCtx applies --queue to ctx.
func (a *app) mutationCtx(ctx context.Context) context.Context {
	if a.v.GetBool(keyQueue) {
		return client.WithQueue(ctx)
	}
	return ctx
}

func (a *app) close() error {
	if a.queue != nil {
		a.queue.Wait()
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportMutation prints the result of a write, or a note when it was queued.
func reportMutation(cmd *cobra.Command, v any, err error) error {
	if errors.Is(err, client.ErrQueued) {
		fmt.Fprintln(cmd.OutOrStdout(), "queued for replay:", strings.TrimPrefix(err.Error(), client.ErrQueued.Error()+": "))
		return nil
	}
	if err != nil {
		return err
	}
	if v == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), v)
}
