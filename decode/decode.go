package decode

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/scene"
	"github.com/whesense/attnlens/tensor"
)

// Options configures a decode.
type Options struct {
	// Controller, when set, gates fetch concurrency and accounts the
	// decoded buffer against the memory budget.
	Controller *resource.Controller

	// FetchObserver, when set, is called once per fetched side-car file
	// with its name, compressed size on the wire, and fetch duration.
	FetchObserver func(name string, n int, d time.Duration)
}

// Option mutates Options.
type Option func(*Options)

// WithController attaches a resource controller to the decode.
func WithController(rc *resource.Controller) Option {
	return func(o *Options) {
		o.Controller = rc
	}
}

// WithFetchObserver registers a callback observing each side-car fetch.
func WithFetchObserver(fn func(name string, n int, d time.Duration)) Option {
	return func(o *Options) {
		o.FetchObserver = fn
	}
}

// Tensor fetches and decodes the variant's payload into a flat float32
// tensor of the given shape.
//
// The payload and scale file (when the encoding has one) are fetched
// concurrently, each with a single attempt. Every failure mode (transport
// errors, unknown encodings, length mismatches, batch != 1) surfaces as an
// error; nothing is defaulted or retried.
func Tensor(ctx context.Context, store blobstore.Store, v *scene.Variant, shape tensor.Shape, optFns ...Option) (*tensor.Tensor, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := shape.Validate(); err != nil {
		return nil, err
	}

	var payload, scales []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := fetch(gctx, store, v.File, &opts)
		if err != nil {
			return err
		}
		payload = b
		return nil
	})
	if v.ScaleFile != "" {
		g.Go(func() error {
			b, err := fetch(gctx, store, v.ScaleFile, &opts)
			if err != nil {
				return err
			}
			scales = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Controller != nil {
		bytes := int64(shape.NumElements()) * 4
		if err := opts.Controller.AcquireMemory(ctx, bytes); err != nil {
			return nil, err
		}
	}

	flat, err := dequantize(v, shape, payload, scales)
	if err != nil {
		if opts.Controller != nil {
			opts.Controller.ReleaseMemory(int64(shape.NumElements()) * 4)
		}
		return nil, err
	}

	return tensor.New(shape, flat)
}

// fetch streams one side-car file into memory, honoring the fetch-slot
// limit and pacing the read through the IO limiter, and inflates
// compressed transports.
func fetch(ctx context.Context, store blobstore.Store, name string, opts *Options) ([]byte, error) {
	if rc := opts.Controller; rc != nil {
		if err := rc.AcquireFetch(ctx); err != nil {
			return nil, err
		}
		defer rc.ReleaseFetch()
	}

	start := time.Now()
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	var data []byte
	if size := b.Size(); size > 0 {
		rng, err := b.ReadRange(ctx, 0, size)
		if err != nil {
			return nil, err
		}
		var r io.Reader = rng
		if rc := opts.Controller; rc != nil {
			r = resource.NewRateLimitedReader(ctx, rng, rc)
		}
		data, err = io.ReadAll(r)
		_ = rng.Close()
		if err != nil {
			return nil, fmt.Errorf("decode: fetching %q: %w", name, err)
		}
	}
	if opts.FetchObserver != nil {
		opts.FetchObserver(name, len(data), time.Since(start))
	}
	return maybeDecompress(name, data)
}

// dequantize dispatches on the variant key decided at manifest-parse time.
func dequantize(v *scene.Variant, shape tensor.Shape, payload, scales []byte) ([]float32, error) {
	switch v.Key {
	case scene.KeyFP32:
		return decodeFP32(v.File, shape, payload)
	case scene.KeyInt8:
		return decodeInt8PerHead(v, shape, payload, scales)
	case scene.KeyInt4:
		return decodeInt4PerHeadQuery(v, shape, payload, scales)
	default:
		return nil, &EncodingError{Key: v.Key, DType: v.DType, Encoding: v.Encoding}
	}
}
