package service

import (
	// Std
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/cache"
	"github.com/momentum-xyz/mapconfig/internal/config"
	"github.com/momentum-xyz/mapconfig/internal/loader"
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/internal/metrics"
	safemqtt "github.com/momentum-xyz/mapconfig/internal/mqtt"
	"github.com/momentum-xyz/mapconfig/internal/net"
	"github.com/momentum-xyz/mapconfig/internal/registry"
	"github.com/momentum-xyz/mapconfig/internal/storage"
	"github.com/momentum-xyz/mapconfig/internal/world"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"
	"github.com/momentum-xyz/mapconfig/utils"

	// Third-Party
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

const (
	SourceFile  = "file"
	SourceCache = "cache"

	reloadKey = "reload"
)

var log = logger.L().With("package", "service")

// Options carries the optional backends. A nil field disables that concern.
type Options struct {
	Database *storage.Database
	Cache    *cache.Store
	Reporter metrics.Reporter
	MQTT     safemqtt.Client
}

// Service owns the live registry and everything that feeds or mirrors it.
type Service struct {
	cfg       *config.Config
	loader    *loader.Loader
	registry  *registry.Registry
	db        *storage.Database
	overrides world.Storage
	cache     *cache.Store
	reporter  metrics.Reporter
	mqtt      safemqtt.Client
	publisher *safemqtt.Publisher
	reloads   *utils.TimerSet[string]
	// set while the live worlds come from a load that reported failures
	degraded utils.TAtomBool

	// reloadMu guards everything below and serializes reloads with admin
	// updates.
	reloadMu deadlock.Mutex
	// file version of every loaded world, before overrides
	base map[string]*worldsettings.WorldSettings
	// overrides when no storage is configured
	memory map[string][]byte
}

func New(cfg *config.Config, reg *registry.Registry, opts Options) (*Service, error) {
	l, err := loader.New()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		loader:   l,
		registry: reg,
		db:       opts.Database,
		cache:    opts.Cache,
		reporter: opts.Reporter,
		mqtt:     opts.MQTT,
		reloads:  utils.NewTimerSet[string](),
		base:     make(map[string]*worldsettings.WorldSettings),
		memory:   make(map[string][]byte),
	}
	if s.reporter == nil {
		s.reporter = metrics.NewReporter(&cfg.Influx, cfg.Settings.NodeName)
	}
	if s.db != nil {
		s.overrides = world.NewStorage(s.db.DB)
	}
	if s.cache != nil {
		reg.Subscribe(s.saveCache)
	}
	if s.mqtt != nil {
		s.publisher = safemqtt.NewPublisher(s.mqtt, cfg.MQTT.TopicPrefix)
		reg.Subscribe(s.publisher.OnSnapshot)
		if err := s.publisher.SubscribeReload(s.RequestReload); err != nil {
			log.Warn(errors.WithMessage(err, "Service: reload topic unavailable"))
		}
	}
	return s, nil
}

// Open builds every backend the configuration enables and returns the
// service on top of them.
func Open(cfg *config.Config, reg *registry.Registry) (*Service, error) {
	var (
		opts      Options
		connected = make(chan struct{})
		svc       *Service
	)

	if cfg.Storage.Driver != "" {
		db, err := storage.OpenDB(&cfg.Storage)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to open storage")
		}
		if err := storage.MigrateDb(db); err != nil {
			db.Close()
			return nil, errors.WithMessage(err, "failed to migrate storage")
		}
		opts.Database = db
	}

	if cfg.Worlds.CacheFile != "" {
		store, err := cache.Open(cfg.Worlds.CacheFile)
		if err != nil {
			log.Warn(errors.WithMessage(err, "Service: running without last-known-good cache"))
		} else {
			opts.Cache = store
		}
	}

	if cfg.MQTT.Enabled() {
		client, err := safemqtt.InitMQTTClient(&cfg.MQTT, uuid.NewString(), func() {
			<-connected
			if svc != nil {
				svc.onBrokerConnect()
			}
		})
		if err != nil {
			log.Warn(errors.WithMessage(err, "Service: running without mqtt"))
		} else {
			opts.MQTT = client
		}
	}

	svc, err := New(cfg, reg, opts)
	if err != nil {
		close(connected)
		if opts.MQTT != nil {
			opts.MQTT.Disconnect()
		}
		if opts.Cache != nil {
			opts.Cache.Close()
		}
		if opts.Database != nil {
			opts.Database.Close()
		}
		return nil, err
	}
	close(connected)
	return svc, nil
}

func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Start performs the initial load. When the worlds file cannot be read the
// last-known-good cache is served instead.
func (s *Service) Start() error {
	status, err := s.Reload()
	if err == nil {
		log.Infof("Service: started with %d worlds, revision %s", status.Loaded, status.Revision)
		return nil
	}
	log.Error(errors.WithMessage(err, "Service: initial load failed"))

	if cerr := s.restoreCache(); cerr != nil {
		return errors.WithMessagef(err, "cache fallback failed: %v", cerr)
	}
	return nil
}

// Reload reads the worlds file, applies stored overrides and swaps the
// result in.
func (s *Service) Reload() (net.ReloadStatus, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	res, err := s.loader.LoadFile(s.cfg.Worlds.File)
	if err != nil {
		return net.ReloadStatus{}, err
	}

	base := make(map[string]*worldsettings.WorldSettings, len(res.Worlds))
	for _, w := range res.Worlds {
		base[w.Name()] = w
	}

	var overrideErrs []*loader.WorldError
	docs, err := s.storedOverrides()
	if err != nil {
		log.Warn(errors.WithMessage(err, "Service: overrides unavailable, serving file settings"))
	} else {
		overrideErrs = s.loader.ApplyOverrides(res.Worlds, docs)
	}

	s.degraded.Set(len(res.Errors) > 0)
	snap, err := s.registry.Replace(res.Worlds)
	if err != nil {
		return net.ReloadStatus{}, errors.WithMessage(err, "failed to replace worlds")
	}
	s.base = base

	s.reporter.ReportLoad(metrics.LoadStats{
		Source:   SourceFile,
		Loaded:   len(res.Worlds),
		Failed:   len(res.Errors),
		Duration: time.Since(start),
	})

	status := net.ReloadStatus{
		Revision: snap.Revision,
		Loaded:   len(res.Worlds),
		Failed:   make([]string, 0, len(res.Errors)+len(overrideErrs)),
	}
	for _, e := range res.Errors {
		status.Failed = append(status.Failed, e.Error())
	}
	for _, e := range overrideErrs {
		status.Failed = append(status.Failed, e.Error())
	}
	return status, nil
}

// RequestReload schedules a reload. Requests closer together than the
// configured debounce collapse into one.
func (s *Service) RequestReload() {
	s.reloads.Set(reloadKey, s.cfg.Worlds.ReloadDebounce, func(string) error {
		_, err := s.Reload()
		return err
	})
}

// UpdateWorld merges an override document into the stored override of a
// world, persists the result and serves the file settings with it applied.
// A null top level key drops that key from the stored override.
func (s *Service) UpdateWorld(name string, document []byte) (*worldsettings.WorldSettings, error) {
	if err := s.loader.ValidateOverrides(document); err != nil {
		return nil, err
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	current, ok := s.registry.Get(name)
	if !ok {
		return nil, errors.WithMessagef(registry.ErrUnknownWorld, "%q", name)
	}
	stored, err := s.storedOverride(name)
	if err != nil {
		return nil, err
	}
	merged, err := worldsettings.MergeOverrides(stored, document)
	if err != nil {
		return nil, err
	}
	ov, err := s.loader.DecodeOverrides(merged)
	if err != nil {
		return nil, errors.WithMessage(err, "stored override")
	}

	// worlds restored from the cache have no file version
	base, ok := s.base[name]
	if !ok {
		base = current
	}
	candidate := base.Clone()
	candidate.Apply(ov)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if err := s.storeOverride(name, merged); err != nil {
		return nil, err
	}
	if _, err := s.registry.Put(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// ResetWorld removes the stored override of a world and reloads.
func (s *Service) ResetWorld(name string) (net.ReloadStatus, error) {
	s.reloadMu.Lock()
	err := s.removeOverride(name)
	s.reloadMu.Unlock()
	if err != nil {
		return net.ReloadStatus{}, err
	}
	return s.Reload()
}

func (s *Service) storedOverrides() (map[string][]byte, error) {
	if s.overrides != nil {
		return s.overrides.GetOverrides()
	}
	docs := make(map[string][]byte, len(s.memory))
	for name, doc := range s.memory {
		docs[name] = doc
	}
	return docs, nil
}

func (s *Service) storedOverride(name string) ([]byte, error) {
	if s.overrides == nil {
		return s.memory[name], nil
	}
	o, err := s.overrides.GetOverride(name)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read override")
	}
	return []byte(o.Document), nil
}

func (s *Service) storeOverride(name string, document []byte) error {
	if s.overrides == nil {
		log.Warnf("Service: no storage configured, override for %s lives in memory only", name)
		s.memory[name] = document
		return nil
	}
	return errors.WithMessage(s.overrides.SaveOverride(name, document), "failed to persist override")
}

func (s *Service) removeOverride(name string) error {
	if s.overrides == nil {
		delete(s.memory, name)
		return nil
	}
	return errors.WithMessage(s.overrides.RemoveOverride(name), "failed to remove override")
}

func (s *Service) Ready() net.ReadyStatus {
	status := net.ReadyStatus{
		Worlds:     len(s.registry.List()),
		Database:   "DISABLED",
		MessageBus: "DISABLED",
	}
	if s.db != nil {
		status.Database = "OK"
		if err := s.db.Ping(); err != nil {
			log.Warn(errors.WithMessage(err, "Service: database ping failed"))
			status.Database = "FAIL"
		}
	}
	if s.mqtt != nil {
		status.MessageBus = "OK"
		if !s.mqtt.IsConnected() {
			status.MessageBus = "FAIL"
		}
	}
	return status
}

func (s *Service) Close() {
	if s.reloads != nil {
		s.reloads.Stop(reloadKey)
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.reporter != nil {
		s.reporter.Close()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Warn(errors.WithMessage(err, "Service: failed to close cache"))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn(errors.WithMessage(err, "Service: failed to close storage"))
		}
	}
}

func (s *Service) restoreCache() error {
	if s.cache == nil {
		return errors.New("no cache configured")
	}
	start := time.Now()
	revision, worlds, err := s.cache.Load()
	if err != nil {
		return errors.WithMessage(err, "failed to load cache")
	}
	if len(worlds) == 0 {
		return errors.New("cache is empty")
	}
	if _, err := s.registry.Replace(worlds); err != nil {
		return errors.WithMessage(err, "failed to restore cache")
	}
	s.reporter.ReportLoad(metrics.LoadStats{
		Source:   SourceCache,
		Loaded:   len(worlds),
		Duration: time.Since(start),
	})
	log.Warnf("Service: serving %d cached worlds from revision %s", len(worlds), revision)
	return nil
}

func (s *Service) saveCache(snap registry.Snapshot) {
	if len(snap.Worlds) == 0 || s.degraded.Get() {
		log.Warnf("Service: revision %s not cached, keeping the last-known-good worlds", snap.Revision)
		return
	}
	if err := s.cache.Save(snap.Revision, snap.Worlds); err != nil {
		log.Warn(errors.WithMessage(err, "Service: failed to update cache"))
	}
}

func (s *Service) onBrokerConnect() {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.SubscribeReload(s.RequestReload); err != nil {
		log.Warn(errors.WithMessage(err, "Service: failed to resubscribe reload topic"))
	}
	s.registry.Deliver(s.publisher.OnSnapshot)
}
