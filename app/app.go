package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kbukum/transcribot/bootstrap"
	"github.com/kbukum/transcribot/bot"
	"github.com/kbukum/transcribot/cache"
	"github.com/kbukum/transcribot/cleanup"
	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/database"
	"github.com/kbukum/transcribot/delivery"
	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/media"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/process"
	"github.com/kbukum/transcribot/redis"
	"github.com/kbukum/transcribot/server"
	"github.com/kbukum/transcribot/storage"
	_ "github.com/kbukum/transcribot/storage/local"
	"github.com/kbukum/transcribot/store"
	"github.com/kbukum/transcribot/telegram"
	"github.com/kbukum/transcribot/transcription"
	"github.com/kbukum/transcribot/transcription/sidecar"
	"github.com/kbukum/transcribot/transcription/whisper"
	"github.com/kbukum/transcribot/version"
	"github.com/kbukum/transcribot/worker"
)

// downloadClientConfig configures media downloads. Files can be large and
// slow, so the transfer is bounded only by the worker's ctx.
func downloadClientConfig() httpclient.Config {
	return httpclient.Config{
		Timeout: -1,
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	}
}

// App is the bootstrapped service.
type App = bootstrap.App[*Config]

// infra holds the components the configure phase builds on.
type infra struct {
	db      *database.Component
	storage *storage.Component
	redis   *redis.Component
}

// New creates the application. Infrastructure is registered immediately;
// the bot, worker and admin server are built once it has started.
func New(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	in := &infra{
		db: database.NewComponent(cfg.Database, a.Logger).
			WithAutoMigrate(store.Models()...).
			WithMigrations(store.Migrations, store.MigrationsDir),
		storage: storage.NewComponent(cfg.Storage, a.Logger),
	}
	components := []component.Component{
		observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, a.Logger),
		in.db,
		in.storage,
	}
	if cfg.Redis.Enabled {
		in.redis = redis.NewComponent(cfg.Redis, a.Logger)
		components = append(components, in.redis)
	}
	for _, c := range components {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	a.OnConfigure(func(ctx context.Context, a *App) error {
		return configure(ctx, a, in)
	})
	return a, nil
}

func configure(ctx context.Context, a *App, in *infra) error {
	cfg := a.Cfg
	log := a.Logger

	st := store.NewGormStore(in.db.DB().GormDB)
	scratch := in.storage.Storage()
	scratchDir, err := filepath.Abs(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("resolve scratch dir: %w", err)
	}

	tg, err := telegram.New(cfg.Telegram, log)
	if err != nil {
		return err
	}
	downloads, err := httpclient.New(downloadClientConfig())
	if err != nil {
		return fmt.Errorf("download client: %w", err)
	}

	var cacheOpts []cache.Option
	if in.redis != nil {
		cacheOpts = append(cacheOpts, cache.WithRedis(in.redis.Client()))
	}

	engine, err := newEngine(cfg.Transcription, log)
	if err != nil {
		return err
	}
	if !engine.IsAvailable(ctx) {
		log.Warn("Transcription engine is not available yet", logger.Fields(logger.FieldProvider, engine.Name()))
	}

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	wcfg := cfg.Worker
	wcfg.Model = cfg.Transcription.Model
	wcfg.Language = cfg.Transcription.Language
	w, err := worker.New(wcfg, worker.Dependencies{
		Store:       st,
		Fetcher:     media.NewFetcher(downloads, scratch, log),
		Hasher:      media.NewHasher(scratch),
		Cache:       cache.New(st, log, cacheOpts...),
		Transcriber: engine,
		Delivery:    delivery.NewGateway(tg, log),
		Cleanup:     cleanup.NewManager(scratch, log),
		Metrics:     metrics,
	}, log)
	if err != nil {
		return err
	}

	handler, err := bot.NewHandler(cfg.Bot, tg, st, scratchDir, metrics, log)
	if err != nil {
		return err
	}
	poller := bot.NewPoller(tg, handler, tg.PollTimeout(), cfg.Bot.UpdateTimeout, log)

	components := []component.Component{w, poller}
	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, log)
		srv.RegisterEndpoints(cfg.Name, a.Components.HealthAll, st, st)
		components = append(components, server.NewComponent(srv))
	}
	for _, c := range components {
		if err := a.RegisterComponent(c); err != nil {
			return err
		}
	}

	return summarize(ctx, a, st, tg, engine)
}

func newEngine(cfg transcription.Config, log *logger.Logger) (transcription.Provider, error) {
	reg := transcription.NewRegistry()
	whisper.Register(reg, process.NewExec(log), log)
	sidecar.Register(reg, log)
	return transcription.New(reg, cfg)
}

// Identity is the part of the Bot API the summary needs.
type Identity interface {
	GetMe(ctx context.Context) (*telegram.User, error)
}

// Counter is the part of the store the summary needs.
type Counter interface {
	CountAccounts(ctx context.Context) (int64, error)
	CountJobs(ctx context.Context) (int64, error)
}

// summarize records the startup facts: known accounts, bot identity and
// the jobs left from a previous run. Lookup failures are shown, not fatal.
func summarize(ctx context.Context, a *App, st Counter, id Identity, engine transcription.Provider) error {
	accounts, err := st.CountAccounts(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	pending, err := st.CountJobs(ctx)
	if err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}

	identity := "unknown"
	if me, err := id.GetMe(ctx); err != nil {
		a.Logger.Warn("Bot identity not available", logger.ErrorFields("get_me", err))
	} else {
		identity = fmt.Sprintf("@%s (%d)", me.Username, me.ID)
	}

	a.Summary.AddFact("accounts", "👥 Users", accounts)
	a.Summary.AddFact("bot", "🤖 Bot", identity)
	a.Summary.AddFact("pending_jobs", "📥 Pending jobs", pending)
	a.Summary.AddFact("engine", "🎙️ Engine", fmt.Sprintf("%s (model %s, language %s)",
		engine.Name(), a.Cfg.Transcription.Model, a.Cfg.Transcription.Language))
	return nil
}
