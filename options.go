package attnlens

import (
	"log/slog"

	"github.com/whesense/attnlens/codec"
	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/scene"
)

type options struct {
	codec            codec.Codec
	precision        scene.Precision
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
	tensorCacheBytes int64
}

// Option configures Load and Session behavior.
type Option func(*options)

// WithCodec configures the codec used for decoding manifests and catalogs.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithPrecision requests a specific tensor precision variant.
//
// The default, scene.PrecisionAuto, follows the manifest's recommendation
// and falls back int4 > int8 > fp32. An explicitly requested variant that
// the scene does not carry fails the load with a *scene.PrecisionError.
func WithPrecision(p scene.Precision) Option {
	return func(o *options) {
		o.precision = p
	}
}

// WithResourceController attaches a resource controller that gates fetch
// concurrency, IO rate, and decoded-tensor memory.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     2 << 30,
//	    MaxConcurrentFetches: 4,
//	})
//	sc, _ := attnlens.Load(ctx, store, name, attnlens.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// DefaultTensorCacheBytes is the decoded-tensor cache capacity a Session
// uses when WithTensorCacheSize is not given.
const DefaultTensorCacheBytes = 256 << 20

// WithTensorCacheSize sets the Session's decoded-tensor cache capacity in
// bytes. Zero disables the cache. Load ignores this option.
func WithTensorCacheSize(bytes int64) Option {
	return func(o *options) {
		o.tensorCacheBytes = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &attnlens.BasicMetricsCollector{}
//	sc, _ := attnlens.Load(ctx, store, name, attnlens.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Decodes: %d, Avg latency: %dns\n", stats.DecodeCount, stats.DecodeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := attnlens.NewJSONLogger(slog.LevelInfo)
//	sc, _ := attnlens.Load(ctx, store, name, attnlens.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		precision:        scene.PrecisionAuto,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		tensorCacheBytes: DefaultTensorCacheBytes,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
