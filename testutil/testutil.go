package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/pack"
	"github.com/whesense/attnlens/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills the slice with uniform values in [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformTensor returns a [1, heads, queries, keys] tensor with uniform
// values in [0, 1).
func (r *RNG) UniformTensor(heads, queries, keys int) *tensor.Tensor {
	data := make([]float32, heads*queries*keys)
	r.FillUniform(data)
	t, err := tensor.New(tensor.Shape{Batch: 1, Heads: heads, Queries: queries, Keys: keys}, data)
	if err != nil {
		panic(err)
	}
	return t
}

// AttentionTensor returns a [1, heads, queries, keys] tensor whose
// per-(head, query) rows are normalized to sum to 1, matching the output
// of a softmax attention layer.
func (r *RNG) AttentionTensor(heads, queries, keys int) *tensor.Tensor {
	t := r.UniformTensor(heads, queries, keys)
	data := t.Data()
	for row := 0; row < heads*queries; row++ {
		var sum float32
		for k := 0; k < keys; k++ {
			sum += data[row*keys+k]
		}
		if sum == 0 {
			continue
		}
		for k := 0; k < keys; k++ {
			data[row*keys+k] /= sum
		}
	}
	return t
}

// SceneSpec describes the geometry of a synthetic scene fixture.
type SceneSpec struct {
	Cameras      []string
	ImageW       int
	ImageH       int
	OrigW        int
	OrigH        int
	PatchSize    int
	GridSize     int
	Heads        int
	HasCLSTokens bool
	BEVRange     [4]float64
}

// DefaultSceneSpec returns a small scene: two 8x8 cameras with 4x4 patches
// and CLS tokens over a 4x4 BEV grid.
func DefaultSceneSpec() SceneSpec {
	return SceneSpec{
		Cameras:      []string{"cam_front", "cam_left"},
		ImageW:       8,
		ImageH:       8,
		OrigW:        16,
		OrigH:        16,
		PatchSize:    4,
		GridSize:     4,
		Heads:        2,
		HasCLSTokens: true,
		BEVRange:     [4]float64{-40, 40, -40, 40},
	}
}

// TokenCount returns the key-token count the spec's geometry implies.
func (s SceneSpec) TokenCount() int {
	perCamera := (s.ImageH / s.PatchSize) * (s.ImageW / s.PatchSize)
	if s.HasCLSTokens {
		perCamera++
	}
	return len(s.Cameras) * perCamera
}

// Queries returns the BEV query count.
func (s SceneSpec) Queries() int {
	return s.GridSize * s.GridSize
}

// Write generates an attention tensor for the spec's geometry and publishes
// a complete scene pack under dir. It returns the manifest name and the
// source tensor for exactness checks against the fp32 variant.
func (s SceneSpec) Write(ctx context.Context, store blobstore.Store, dir string, rng *RNG, optFns ...pack.Option) (string, *tensor.Tensor, error) {
	if s.ImageW%s.PatchSize != 0 || s.ImageH%s.PatchSize != 0 {
		return "", nil, fmt.Errorf("testutil: image %dx%d not divisible by patch size %d", s.ImageW, s.ImageH, s.PatchSize)
	}

	t := rng.AttentionTensor(s.Heads, s.Queries(), s.TokenCount())

	sizes := make([][2]int, len(s.Cameras))
	origSizes := make([][2]int, len(s.Cameras))
	for i := range s.Cameras {
		sizes[i] = [2]int{s.ImageW, s.ImageH}
		origSizes[i] = [2]int{s.OrigW, s.OrigH}
	}

	name, err := pack.WriteScene(ctx, store, dir, pack.SceneInput{
		Tensor:             t,
		ImageNames:         s.Cameras,
		ImageSizes:         sizes,
		OriginalImageSizes: origSizes,
		GridSize:           s.GridSize,
		PatchSize:          s.PatchSize,
		BEVRange:           s.BEVRange,
		HasCLSTokens:       s.HasCLSTokens,
	}, optFns...)
	if err != nil {
		return "", nil, err
	}
	return name, t, nil
}
