package attnlens

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/engine"
	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/scene"
)

func TestSessionSwitch(t *testing.T) {
	store := blobstore.NewMemoryStore()
	a := writeTestScene(t, store, "scenes/a")
	b := writeTestScene(t, store, "scenes/b")

	sess := NewSession(store)
	defer func() { _ = sess.Close() }()

	require.Nil(t, sess.Current())

	scA, err := sess.Switch(context.Background(), a)
	require.NoError(t, err)
	assert.Same(t, scA, sess.Current())

	scB, err := sess.Switch(context.Background(), b)
	require.NoError(t, err)
	assert.Same(t, scB, sess.Current())

	// The old scene stays queryable after the switch.
	_, err = scA.PatchAttention(0, "cam_front", engine.MeanHeads())
	assert.NoError(t, err)
}

func TestSessionTensorCacheReuse(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	metrics := &BasicMetricsCollector{}
	sess := NewSession(store, WithMetricsCollector(metrics))
	defer func() { _ = sess.Close() }()

	ctx := context.Background()
	_, err := sess.Switch(ctx, name)
	require.NoError(t, err)
	_, err = sess.Switch(ctx, name)
	require.NoError(t, err)

	// The second switch re-reads the manifest but serves the tensor from
	// cache without decoding again.
	assert.Equal(t, int64(1), metrics.GetStats().DecodeCount)
	hits, _ := sess.CacheStats()
	assert.Equal(t, int64(1), hits)
}

func TestSessionCacheDisabled(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	metrics := &BasicMetricsCollector{}
	sess := NewSession(store, WithMetricsCollector(metrics), WithTensorCacheSize(0))
	defer func() { _ = sess.Close() }()

	ctx := context.Background()
	_, err := sess.Switch(ctx, name)
	require.NoError(t, err)
	_, err = sess.Switch(ctx, name)
	require.NoError(t, err)

	assert.Equal(t, int64(2), metrics.GetStats().DecodeCount)
}

func TestSessionCacheDeclinedKeepsReservation(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	// A cache too small for any tensor declines every insert.
	sess := NewSession(store, WithResourceController(rc), WithTensorCacheSize(8))
	defer func() { _ = sess.Close() }()

	sc, err := sess.Switch(context.Background(), name)
	require.NoError(t, err)

	// The live tensor still counts against the budget.
	assert.Equal(t, sc.Tensor().MemoryBytes(), rc.MemoryUsage())

	require.NoError(t, sc.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestSessionInvalidate(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	metrics := &BasicMetricsCollector{}
	sess := NewSession(store, WithMetricsCollector(metrics))
	defer func() { _ = sess.Close() }()

	ctx := context.Background()
	_, err := sess.Switch(ctx, name)
	require.NoError(t, err)

	sess.Invalidate(name)

	_, err = sess.Switch(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(2), metrics.GetStats().DecodeCount)
}

func TestSessionPrecisionVariants(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	int8Sess := NewSession(store, WithPrecision(scene.PrecisionInt8))
	defer func() { _ = int8Sess.Close() }()

	sc, err := int8Sess.Switch(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, scene.KeyInt8, sc.Resolution().Key)
}

func TestSessionClosed(t *testing.T) {
	store := blobstore.NewMemoryStore()
	name := writeTestScene(t, store, "scenes/a")

	sess := NewSession(store)
	_, err := sess.Switch(context.Background(), name)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	assert.Nil(t, sess.Current())

	_, err = sess.Switch(context.Background(), name)
	assert.ErrorIs(t, err, ErrSessionClosed)

	// Close is idempotent.
	assert.NoError(t, sess.Close())
}

// gatedStore delays Open for one blob name until released, so a test can
// hold a switch mid-load while a later switch completes.
type gatedStore struct {
	blobstore.Store

	mu      sync.Mutex
	gate    chan struct{}
	name    string
	blocked chan struct{}
	once    sync.Once
}

func newGatedStore(inner blobstore.Store, name string) *gatedStore {
	return &gatedStore{
		Store:   inner,
		gate:    make(chan struct{}),
		name:    name,
		blocked: make(chan struct{}),
	}
}

func (g *gatedStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	g.mu.Lock()
	shouldBlock := name == g.name
	g.mu.Unlock()

	if shouldBlock {
		g.once.Do(func() { close(g.blocked) })
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Store.Open(ctx, name)
}

func (g *gatedStore) release() {
	g.mu.Lock()
	g.name = ""
	g.mu.Unlock()
	close(g.gate)
}

func TestSessionSupersededSwitch(t *testing.T) {
	inner := blobstore.NewMemoryStore()
	slow := writeTestScene(t, inner, "scenes/slow")
	fast := writeTestScene(t, inner, "scenes/fast")

	store := newGatedStore(inner, slow)
	sess := NewSession(store)
	defer func() { _ = sess.Close() }()

	errCh := make(chan error, 1)
	go func() {
		_, err := sess.Switch(context.Background(), slow)
		errCh <- err
	}()

	// Wait until the slow switch is held at its manifest fetch, then let a
	// second switch win the race.
	select {
	case <-store.blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("slow switch never reached the store")
	}

	scFast, err := sess.Switch(context.Background(), fast)
	require.NoError(t, err)

	store.release()
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Same(t, scFast, sess.Current())
}
