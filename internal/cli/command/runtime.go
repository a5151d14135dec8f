package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/cli/config"
	"github.com/yndnr/booklend-go/internal/cli/connection"
	"github.com/yndnr/booklend-go/internal/cli/output"
	"github.com/yndnr/booklend-go/internal/core/catalog"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/core/session"
	"github.com/yndnr/booklend-go/internal/infra/shutdown"
	"github.com/yndnr/booklend-go/internal/infra/tlsroots"
	"github.com/yndnr/booklend-go/internal/storage"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
	"github.com/yndnr/booklend-go/internal/telemetry/metric"
)

// Runtime holds everything a command needs. It lives for one process:
// a single command, or the whole interactive shell.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry

	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	format    output.Format
	wide      bool
	ephemeral bool

	store     storage.Store
	storeDesc string
	session   *session.Manager
	client    *connection.HTTPClient
	catalog   *catalog.Service
	cleanup   *shutdown.Handler

	listOp   catalog.Operation[[]domain.Book]
	saveOp   catalog.Operation[domain.Book]
	deleteOp catalog.Operation[string]
}

// newRuntime loads configuration and logging. Session state is opened
// lazily by Open so commands such as version never touch the store.
func newRuntime(c *cli.Context) (*Runtime, error) {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	// Bad log settings must not stop config validate from reporting them.
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     c.App.ErrWriter,
		Timestamps: cfg.Log.Timestamps,
	})
	if err != nil {
		log, _ = logger.New(logger.Config{Output: c.App.ErrWriter})
		log.Warn("log settings ignored", "error", err)
	}
	logger.SetDefault(log)

	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	return &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		in:         c.App.Reader,
		out:        c.App.Writer,
		errOut:     c.App.ErrWriter,
		format:     format,
		wide:       c.Bool("wide"),
		ephemeral:  c.Bool("ephemeral"),
		cleanup:    shutdown.NewHandler(10 * time.Second),
	}, nil
}

// Open builds the store, gate, session manager and catalog client, then
// resolves the session from the stored token. Later calls are no-ops.
func (rt *Runtime) Open(ctx context.Context) error {
	if rt.session != nil {
		return nil
	}
	cfg := rt.Config
	if err := config.Verify(cfg); err != nil {
		return err
	}

	store, err := rt.openStore()
	if err != nil {
		return err
	}

	gate, err := biometric.New(cfg.Biometric.Provider, biometric.Options{
		PasscodeHash: cfg.Biometric.PasscodeHash,
		In:           rt.in,
		Out:          rt.errOut,
	})
	if err != nil {
		return err
	}

	policy, err := session.ParsePolicy(cfg.Session.BiometricPolicy)
	if err != nil {
		return err
	}

	mgr := session.NewManager(store, gate,
		session.WithPolicy(policy),
		session.WithPrompt(cfg.Biometric.Prompt),
		session.WithLogger(rt.Logger),
		session.WithChallengeObserver(rt.Metrics.ObserveChallenge),
	)
	mgr.OnTransition(func(from, to session.State) {
		rt.Metrics.ObserveTransition(from.String(), to.String())
	})

	opts := []connection.Option{
		connection.WithTimeout(cfg.CatalogTimeout()),
		connection.WithAuthRejectedHandler(mgr.HandleAuthRejected),
		connection.WithObserver(rt.Metrics),
		connection.WithLogger(rt.Logger),
	}
	tlsCfg, err := tlsroots.ClientConfig(cfg.Catalog.CAFile)
	if err != nil {
		return err
	}
	if tlsCfg != nil {
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	if cfg.Catalog.RateLimit > 0 {
		opts = append(opts, connection.WithRateLimit(cfg.Catalog.RateLimit, cfg.Catalog.RateBurst))
	}

	rt.store = store
	rt.session = mgr
	rt.client = connection.NewHTTPClient(cfg.Catalog.BaseURL, store, opts...)
	rt.catalog = catalog.NewService(rt.client, mgr, catalog.WithLogger(rt.Logger))

	mgr.Start(ctx)
	return nil
}

func (rt *Runtime) openStore() (storage.Store, error) {
	if rt.ephemeral {
		rt.storeDesc = "memory"
		return storage.NewMemoryStore(), nil
	}

	sl := logger.Slog(rt.Logger)
	badgerStore, err := storage.NewBadgerStore(storage.DefaultBadgerConfig(rt.Config.Storage.Dir), sl)
	if err != nil {
		return nil, err
	}
	rt.cleanup.OnShutdown("store", func(context.Context) error {
		return badgerStore.Close()
	})
	if err := rt.Metrics.Register(badgerStore.Collectors()...); err != nil {
		rt.Logger.Warn("store metrics not registered", "error", err)
	}
	rt.storeDesc = rt.Config.Storage.Dir

	if rt.Config.Storage.KeyFile == "" {
		return badgerStore, nil
	}
	key, err := storage.LoadOrCreateKey(rt.Config.Storage.KeyFile)
	if err != nil {
		return nil, err
	}
	sealed, err := storage.NewSealedStore(badgerStore, key, sl)
	if err != nil {
		return nil, err
	}
	rt.storeDesc += " (sealed)"
	return sealed, nil
}

// Catalog returns the catalog service, running the biometric gate once
// when a stored session is still locked.
func (rt *Runtime) Catalog(ctx context.Context) (*catalog.Service, error) {
	if err := rt.Open(ctx); err != nil {
		return nil, err
	}
	if rt.session.State() == session.AwaitingBiometric {
		if err := rt.session.Unlock(ctx); err != nil {
			return nil, err
		}
	}
	return rt.catalog, nil
}

// Close writes the metrics file, if configured, then releases the store.
// Metrics go first so store gauges still read live values.
func (rt *Runtime) Close(ctx context.Context) error {
	if path := rt.Config.MetricsFile; path != "" {
		if err := rt.Metrics.WriteTextfile(path); err != nil {
			rt.Logger.Warn("metrics file not written", "path", path, "error", err)
		}
	}
	return rt.cleanup.Run(ctx)
}

// Print renders data in the selected output format.
func (rt *Runtime) Print(data any) error {
	return output.NewFormatter(rt.format, rt.wide).Format(rt.out, data)
}

// Notice prints a human message. Machine formats stay clean.
func (rt *Runtime) Notice(format string, args ...any) {
	if rt.format != output.FormatTable {
		return
	}
	fmt.Fprintf(rt.out, format+"\n", args...)
}

// Spin shows a spinner on an interactive stderr and returns the stop
// function.
func (rt *Runtime) Spin(message string) func() {
	f, ok := rt.errOut.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	s := output.NewSpinner(rt.errOut, message)
	s.Start()
	return s.Stop
}
