package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Reload triggers, used as log fields and metric labels
const (
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Reload results
const (
	ResultSwapped   = "swapped"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// ErrNoSnapshot is returned by queries made before the first successful load
var ErrNoSnapshot = errors.New("no descriptor set loaded")

// Registry publishes the current Snapshot of a Source. Readers call Current
// without locking; reloads are serialized and replace the snapshot
// atomically. A failed reload keeps the previous snapshot.
type Registry struct {
	source  Source
	build   BuildOptions
	metrics *observability.Metrics
	logger  *logrus.Logger

	mu          sync.Mutex
	generation  uint64
	subscribers []func(*Snapshot)

	current atomic.Pointer[Snapshot]
}

// Option configures a Registry
type Option func(*Registry)

// WithSchema sets the annotation schema used to build snapshots
func WithSchema(schema *annotations.Schema) Option {
	return func(r *Registry) {
		r.build.Schema = schema
	}
}

// WithExclusions sets the related type exclusions of built snapshots
func WithExclusions(exclusions []string) Option {
	return func(r *Registry) {
		r.build.Exclusions = exclusions
	}
}

// WithStrict makes reloads reject descriptor sets that fail validation
func WithStrict(strict bool) Option {
	return func(r *Registry) {
		r.build.Strict = strict
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry over source. No snapshot is loaded until Reload
// is called.
func New(source Source, opts ...Option) *Registry {
	r := &Registry{source: source}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = observability.OrDefault(r.logger)
	r.build.Logger = r.logger
	return r
}

// Source returns the source the registry loads from
func (r *Registry) Source() Source {
	return r.source
}

// Current returns the published snapshot, or nil before the first
// successful load.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Snapshot returns the published snapshot or ErrNoSnapshot
func (r *Registry) Snapshot() (*Snapshot, error) {
	snap := r.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Subscribe registers fn to be called with every newly published snapshot.
// Callbacks run synchronously, in publication order, while the reload lock
// is held; they must not call Reload.
func (r *Registry) Subscribe(fn func(*Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Reload loads the source and publishes a new snapshot if its content
// changed. It reports whether a new snapshot was published.
func (r *Registry) Reload(ctx context.Context, trigger string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logger.WithFields(logrus.Fields{
		"source":  r.source.String(),
		"trigger": trigger,
	})

	data, err := r.source.Load(ctx)
	if err != nil {
		r.metrics.ObserveReload(trigger, ResultFailed)
		log.WithError(err).Error("Failed to load descriptor set")
		return false, err
	}

	if cur := r.current.Load(); cur != nil && cur.Digest == Digest(data) {
		r.metrics.ObserveReload(trigger, ResultUnchanged)
		log.WithField("generation", cur.Generation).Debug("Descriptor set unchanged")
		return false, nil
	}

	start := time.Now()
	snap, err := NewSnapshot(data, r.build)
	r.metrics.ObserveBuild(start, err)
	if err != nil {
		r.metrics.ObserveReload(trigger, ResultFailed)
		log.WithError(err).Error("Failed to build snapshot, keeping previous one")
		return false, err
	}

	r.generation++
	snap.Generation = r.generation
	r.current.Store(snap)

	r.metrics.ObserveReload(trigger, ResultSwapped)
	r.metrics.SetSnapshot(snap.Generation, snap.Index.Len(), len(snap.Index.Files()))
	log.WithFields(logrus.Fields{
		"generation": snap.Generation,
		"symbols":    snap.Index.Len(),
		"files":      len(snap.Index.Files()),
		"duration":   time.Since(start),
	}).Info("Published descriptor snapshot")

	for _, fn := range r.subscribers {
		fn(snap)
	}
	return true, nil
}
