package bridge

import (
	"context"
	"net/http"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/config"
	"github.com/danielfett/miqro-rutos-sms/internal/dedup"
	"github.com/danielfett/miqro-rutos-sms/internal/device"
	"github.com/danielfett/miqro-rutos-sms/internal/lock"
	"github.com/danielfett/miqro-rutos-sms/internal/logging"
	"github.com/danielfett/miqro-rutos-sms/internal/metrics"
	"github.com/danielfett/miqro-rutos-sms/internal/mqtt"
	"github.com/danielfett/miqro-rutos-sms/internal/outbox"
	"github.com/danielfett/miqro-rutos-sms/internal/poller"
	"github.com/danielfett/miqro-rutos-sms/internal/retention"
	"github.com/danielfett/miqro-rutos-sms/internal/status"
	"github.com/danielfett/miqro-rutos-sms/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the startup parameters passed to the fx module.
type Params struct {
	ConfigPath string
}

// Module returns the fx module for the bridge daemon, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("bridge",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideArchive,
			provideDeviceClient,
			provideSender,
			provideEngine,
			provideAdapter,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	return config.Load(p.ConfigPath)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.File)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring bridge lock", zap.String("state_dir", cfg.Bridge.StateDir))
	l, err := lock.Acquire(cfg.Bridge.StateDir)
	if err != nil {
		return nil, err
	}
	logger.Info("bridge lock acquired")
	return l, nil
}

// provideArchive opens the SQLite archive when configured. Returns nil when
// archiving is disabled.
func provideArchive(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	if cfg.Archive.Path == "" {
		return nil, nil
	}
	db, err := store.Open(cfg.Archive.Path)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("archive migrations applied", zap.Uint("version", result.Version))
	}
	if count, err := db.Count(); err == nil {
		logger.Info("archive opened", zap.String("path", cfg.Archive.Path), zap.Int("messages", count))
	}
	return db, nil
}

func provideDeviceClient(cfg *config.Config, logger *zap.Logger) *device.Client {
	return device.New(cfg.Device, logger)
}

func provideSender(dev *device.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(dev, b, logger)
}

func provideEngine(cfg *config.Config, dev *device.Client, sender *outbox.Sender,
	b *bus.Bus, archive *store.DB, machine *status.Machine, logger *zap.Logger) *poller.Engine {
	return poller.NewEngine(
		dev,
		sender,
		b,
		dedup.NewSet(cfg.Bridge.SeenLimit),
		retention.New(cfg.Bridge.DeleteAfter.Std()),
		archive,
		machine,
		cfg.Bridge.PollInterval.Std(),
		logger,
	)
}

func provideAdapter(cfg *config.Config, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *mqtt.Adapter {
	return mqtt.NewAdapter(cfg.MQTT, cfg.Bridge.TopicPrefix, b, machine, logger)
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, lk *lock.Lock,
	dev *device.Client, sender *outbox.Sender, engine *poller.Engine,
	adapter *mqtt.Adapter, archive *store.DB, machine *status.Machine, logger *zap.Logger) {

	var metricsSrv *http.Server

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			metrics.Init()
			if cfg.Metrics.Listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
				go func() {
					logger.Info("metrics listener starting", zap.String("addr", cfg.Metrics.Listen))
					if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("metrics listener error", zap.Error(err))
					}
				}()
			}

			// Start the command executor and the bus→broker forwarder before
			// connecting so nothing is missed once subscriptions land.
			sender.Start(context.Background())
			adapter.Start(context.Background())

			_ = machine.Transition(status.Connecting)
			if err := adapter.Connect(); err != nil {
				logger.Error("broker connect failed", zap.Error(err))
				_ = machine.Transition(status.Error)
				return err
			}

			if total, err := dev.Total(ctx); err != nil {
				logger.Warn("could not read message total from device", zap.Error(err))
			} else {
				logger.Info("device reachable", zap.Int("messages_on_device", total))
			}

			engine.Start(context.Background())
			logger.Info("bridge started",
				zap.String("topic_prefix", cfg.Bridge.TopicPrefix),
				zap.Duration("poll_interval", cfg.Bridge.PollInterval.Std()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			engine.Stop()
			sender.Stop()
			adapter.Close()
			if metricsSrv != nil {
				_ = metricsSrv.Shutdown(ctx)
			}
			if archive != nil {
				_ = archive.Close()
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("bridge stopped")
			return nil
		},
	})
}
