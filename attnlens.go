package attnlens

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/whesense/attnlens/bev"
	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/decode"
	"github.com/whesense/attnlens/engine"
	"github.com/whesense/attnlens/internal/cache"
	"github.com/whesense/attnlens/internal/imagemeta"
	"github.com/whesense/attnlens/layout"
	"github.com/whesense/attnlens/region"
	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/scene"
	"github.com/whesense/attnlens/tensor"
)

// Scene is a fully loaded attention scene: parsed manifest, decoded tensor,
// token layout, BEV grid, and the query engine bound over them.
//
// A Scene is immutable after Load and safe for concurrent queries.
type Scene struct {
	manifest   *scene.Manifest
	resolution *scene.Resolution
	tensor     *tensor.Tensor
	layout     *layout.Layout
	grid       bev.Grid
	engine     *engine.Engine

	metrics MetricsCollector
	logger  *Logger

	controller *resource.Controller
	ownsMemory bool
	closeOnce  sync.Once
}

// Close releases the tensor's memory reservation against the resource
// controller, when this scene holds one. Queries after Close still work;
// Close only returns budget. Scenes loaded without a controller, or whose
// tensor a Session cache owns, release nothing.
func (s *Scene) Close() error {
	s.closeOnce.Do(func() {
		if s.ownsMemory {
			s.controller.ReleaseMemory(s.tensor.MemoryBytes())
		}
	})
	return nil
}

// Load fetches a scene manifest from the store, resolves the precision
// variant, decodes the attention tensor, and builds the token layout and
// query engine.
//
// manifestName is the manifest blob's name within the store; variant and
// image references inside the manifest are resolved relative to the
// manifest's directory.
func Load(ctx context.Context, store blobstore.Store, manifestName string, optFns ...Option) (*Scene, error) {
	opts := applyOptions(optFns)

	start := time.Now()
	sc, err := loadScene(ctx, store, manifestName, &opts, nil)
	opts.metricsCollector.RecordSceneLoad(time.Since(start), err)

	variant := ""
	if sc != nil {
		variant = sc.resolution.Key
	}
	opts.logger.LogSceneLoad(ctx, manifestName, variant, time.Since(start), err)

	if err != nil {
		return nil, translateError(err)
	}
	return sc, nil
}

// loadScene is the shared load path behind Load and Session.Switch. A
// non-nil tc serves decoded tensors keyed by manifest name and variant.
func loadScene(ctx context.Context, store blobstore.Store, manifestName string, opts *options, tc *cache.TensorCache) (*Scene, error) {
	data, err := blobstore.ReadAll(ctx, store, manifestName)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", manifestName, err)
	}

	m, err := scene.Parse(data, opts.codec)
	if err != nil {
		return nil, err
	}

	res, err := scene.ResolveVariant(m, opts.precision)
	if err != nil {
		return nil, err
	}

	shape, err := m.Shape()
	if err != nil {
		return nil, err
	}

	dir := path.Dir(manifestName)
	cacheKey := manifestName + "|" + res.Key

	var t *tensor.Tensor
	ownsMemory := false
	if tc != nil {
		t, _ = tc.Get(cacheKey)
	}
	if t == nil {
		v := *res.Variant
		v.File = joinName(dir, v.File)
		if v.ScaleFile != "" {
			v.ScaleFile = joinName(dir, v.ScaleFile)
		}

		decodeStart := time.Now()
		t, err = decode.Tensor(ctx, store, &v, shape,
			decode.WithController(opts.controller),
			decode.WithFetchObserver(func(name string, n int, d time.Duration) {
				opts.metricsCollector.RecordFetch(int64(n), d, nil)
			}))
		opts.metricsCollector.RecordDecode(res.Key, time.Since(decodeStart), err)
		opts.logger.LogDecode(ctx, res.Key, shape.NumElements(), time.Since(decodeStart), err)
		if err != nil {
			return nil, err
		}
		if tc != nil && tc.Set(cacheKey, t) {
			// The cache took its own memory reservation; hand the
			// decode-time one back so the tensor is counted once.
			opts.controller.ReleaseMemory(t.MemoryBytes())
		} else {
			// Not cached (no cache, or Set declined): the scene keeps
			// the decode-time reservation until Close.
			ownsMemory = opts.controller != nil
		}
	}

	// From here on the tensor may carry a reservation that has no Scene
	// to release it yet.
	releaseOnErr := func() {
		if ownsMemory {
			opts.controller.ReleaseMemory(t.MemoryBytes())
		}
	}

	cams, err := cameraDims(ctx, store, dir, m)
	if err != nil {
		releaseOnErr()
		return nil, err
	}
	lay, err := layout.Build(cams, m.Metadata.PatchSize, m.Metadata.HasCLSTokens)
	if err != nil {
		releaseOnErr()
		return nil, err
	}

	grid, err := bev.NewGrid(m.Metadata.GridSize, m.Metadata.BEVRange)
	if err != nil {
		releaseOnErr()
		return nil, err
	}

	eng, err := engine.New(t, lay, grid)
	if err != nil {
		releaseOnErr()
		return nil, err
	}

	return &Scene{
		manifest:   m,
		resolution: res,
		tensor:     t,
		layout:     lay,
		grid:       grid,
		engine:     eng,
		metrics:    opts.metricsCollector,
		logger:     opts.logger.WithScene(manifestName).WithVariant(res.Key),
		controller: opts.controller,
		ownsMemory: ownsMemory,
	}, nil
}

// cameraDims assembles per-camera dimensions from the manifest, probing
// encoded images from the store only for cameras whose sizes the manifest
// does not declare. Cameras without original-resolution information reuse
// the input dimensions, which yields identity region scaling.
func cameraDims(ctx context.Context, store blobstore.Store, dir string, m *scene.Manifest) ([]layout.Camera, error) {
	cams := make([]layout.Camera, len(m.ImageNames))
	for i, name := range m.ImageNames {
		c := layout.Camera{Name: name}

		switch {
		case i < len(m.ImageSizes):
			c.InputW, c.InputH = m.ImageSizes[i][0], m.ImageSizes[i][1]
		case i < len(m.ImageFiles):
			w, h, err := probeImage(ctx, store, joinName(dir, m.ImageFiles[i]))
			if err != nil {
				return nil, fmt.Errorf("camera %s: %w", name, err)
			}
			c.InputW, c.InputH = w, h
		default:
			return nil, fmt.Errorf("camera %s: no image size or file in manifest", name)
		}

		switch {
		case i < len(m.OriginalImageSizes):
			c.OrigW, c.OrigH = m.OriginalImageSizes[i][0], m.OriginalImageSizes[i][1]
		case i < len(m.OriginalImageFiles):
			w, h, err := probeImage(ctx, store, joinName(dir, m.OriginalImageFiles[i]))
			if err != nil {
				return nil, fmt.Errorf("camera %s: %w", name, err)
			}
			c.OrigW, c.OrigH = w, h
		default:
			c.OrigW, c.OrigH = c.InputW, c.InputH
		}

		cams[i] = c
	}
	return cams, nil
}

func probeImage(ctx context.Context, store blobstore.Store, name string) (w, h int, err error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return 0, 0, err
	}
	return imagemeta.Size(data)
}

// joinName resolves a manifest-relative blob name.
func joinName(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// Manifest returns the parsed scene manifest.
func (s *Scene) Manifest() *scene.Manifest { return s.manifest }

// Resolution reports which precision variant was loaded and whether a
// fallback was taken.
func (s *Scene) Resolution() *scene.Resolution { return s.resolution }

// Tensor returns the decoded attention tensor.
func (s *Scene) Tensor() *tensor.Tensor { return s.tensor }

// Layout returns the per-camera token layout.
func (s *Scene) Layout() *layout.Layout { return s.layout }

// Grid returns the BEV query grid.
func (s *Scene) Grid() bev.Grid { return s.grid }

// Engine returns the underlying query engine.
func (s *Scene) Engine() *engine.Engine { return s.engine }

// Inverse answers which BEV queries attend to the selected image patches.
// See engine.Engine.Inverse for the aggregation semantics.
func (s *Scene) Inverse(sel *region.PatchSet, opts engine.InverseOptions) (*bev.Map, error) {
	start := time.Now()
	out, err := s.engine.Inverse(sel, opts)

	keys := 0
	if sel != nil {
		keys = sel.Len()
	}
	s.metrics.RecordInverseQuery(keys, time.Since(start), err)
	s.logger.LogQuery(context.Background(), "inverse", time.Since(start), err)

	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// PatchAttention returns the attention row from one BEV query to one
// camera's patch tokens, in row-major patch order.
func (s *Scene) PatchAttention(queryIdx int, camName string, sel engine.HeadSelection) ([]float32, error) {
	start := time.Now()
	out, err := s.engine.PatchAttention(queryIdx, camName, sel)
	s.metrics.RecordForwardQuery(time.Since(start), err)
	s.logger.LogQuery(context.Background(), "forward", time.Since(start), err)

	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// GlobalMaxPatchAttention returns the maximum patch-token attention from one
// BEV query across all cameras, for cross-camera color normalization.
func (s *Scene) GlobalMaxPatchAttention(queryIdx int, sel engine.HeadSelection) (float32, error) {
	start := time.Now()
	out, err := s.engine.GlobalMaxPatchAttention(queryIdx, sel)
	s.metrics.RecordForwardQuery(time.Since(start), err)
	s.logger.LogQuery(context.Background(), "forward_max", time.Since(start), err)

	if err != nil {
		return 0, translateError(err)
	}
	return out, nil
}
