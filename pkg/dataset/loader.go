package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/atlas"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/scene"
)

// Options control how a fetched dataset becomes a manipulable object.
type Options struct {
	// SampleStride keeps every n-th decoded point
	SampleStride int

	// Footprint is the cube edge length of each instance
	Footprint float64

	// Initial is the transform given to every new object
	Initial models.Transform

	// Workers bounds concurrent background loads
	Workers int
}

// LoadResult is delivered on Results for every Request.
type LoadResult struct {
	RequestID uuid.UUID
	Name      string
	Object    *scene.ManipulableObject
	Err       error
	Elapsed   time.Duration
}

type cacheKey struct {
	name   string
	stride int
}

// Loader turns dataset names into manipulable objects. Background loads run
// on an ants pool and report through a channel so the frame loop never
// waits on I/O.
type Loader struct {
	source Source
	opts   Options
	pool   *ants.Pool
	log    logger.Logger

	results chan LoadResult
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	cache map[cacheKey][]models.Point3D
}

// NewLoader creates a loader with its worker pool.
func NewLoader(source Source, opts Options, log logger.Logger) (*Loader, error) {
	if source == nil {
		return nil, errors.New("dataset source is required")
	}
	if opts.SampleStride < 1 {
		opts.SampleStride = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	panicHandler := func(p interface{}) {
		log.Error("dataset worker panicked", logger.F("panic", p))
	}
	pool, err := ants.NewPool(
		opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(panicHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader pool: %w", err)
	}

	return &Loader{
		source:  source,
		opts:    opts,
		pool:    pool,
		log:     log,
		results: make(chan LoadResult, 4*opts.Workers),
		done:    make(chan struct{}),
		cache:   make(map[cacheKey][]models.Point3D),
	}, nil
}

// Results delivers the outcome of every Request.
func (l *Loader) Results() <-chan LoadResult { return l.results }

// Points fetches, parses and decodes name, consulting the cache first.
func (l *Loader) Points(ctx context.Context, name string) ([]models.Point3D, error) {
	key := cacheKey{name: name, stride: l.opts.SampleStride}
	l.mu.Lock()
	cached, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	raw, err := l.source.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	ds, err := atlas.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	points, err := atlas.Decode(ds, l.opts.SampleStride)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[key] = points
	l.mu.Unlock()
	return points, nil
}

// Load builds a new object for name synchronously.
func (l *Loader) Load(ctx context.Context, name string) (*scene.ManipulableObject, error) {
	start := time.Now()
	points, err := l.Points(ctx, name)
	if err != nil {
		return nil, err
	}
	obj := scene.NewHeart(name, points, l.opts.Footprint, l.opts.Initial)
	l.log.Info("dataset loaded",
		logger.F("dataset", name),
		logger.F("points", len(points)),
		logger.F("stride", l.opts.SampleStride),
		logger.F("elapsed", time.Since(start)),
	)
	return obj, nil
}

// Request starts a background load and returns its ID. The result arrives on
// Results. It fails when every worker is busy or the loader is closed. The
// outcome is also logged to the logger carried by ctx, if any.
func (l *Loader) Request(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	err := l.pool.Submit(func() {
		start := time.Now()
		obj, err := l.Load(ctx, name)
		res := LoadResult{RequestID: id, Name: name, Object: obj, Err: err, Elapsed: time.Since(start)}
		logger.FromContext(ctx).Debug("dataset load finished",
			logger.F("dataset", name),
			logger.F("request", id.String()),
			logger.F("ok", err == nil),
			logger.F("elapsed", res.Elapsed),
		)
		select {
		case l.results <- res:
		case <-l.done:
		}
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to submit load of %s: %w", name, err)
	}
	l.log.Debug("dataset requested", logger.F("dataset", name), logger.F("request", id.String()))
	return id, nil
}

// Preload decodes names concurrently into the cache. Names that fail are
// reported together; the rest stay cached.
func (l *Loader) Preload(ctx context.Context, names []string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(name string) {
		if _, err := l.Points(ctx, name); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	for _, name := range names {
		name := name
		wg.Add(1)
		task := func() {
			defer wg.Done()
			record(name)
		}
		if err := l.pool.Submit(task); err != nil {
			// Pool saturated; decode on the caller instead.
			task()
		}
	}
	wg.Wait()

	l.log.Info("datasets preloaded", logger.F("requested", len(names)), logger.F("failed", len(errs)))
	return errors.Join(errs...)
}

// Cached reports whether name is already decoded at the current stride.
func (l *Loader) Cached(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[cacheKey{name: name, stride: l.opts.SampleStride}]
	return ok
}

// Close stops the worker pool. Pending results are dropped.
func (l *Loader) Close() {
	l.once.Do(func() {
		close(l.done)
		l.pool.Release()
	})
}
