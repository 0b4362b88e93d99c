package attnlens

import (
	"context"
	"sync"
	"time"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/internal/cache"
	"github.com/whesense/attnlens/scene"
)

// Session manages scene switching over one store: it tracks the current
// scene, caches decoded tensors across switches, and discards the results
// of switches that a later switch overtook.
//
// A Session is safe for concurrent use. Queries keep working on whichever
// *Scene the caller holds; Switch only changes what Current returns.
type Session struct {
	store blobstore.Store
	opts  options
	cache *cache.TensorCache

	mu      sync.Mutex
	token   uint64
	current *Scene
	closed  bool
}

// NewSession creates a session over the store. Options apply to every
// subsequent Switch.
func NewSession(store blobstore.Store, optFns ...Option) *Session {
	opts := applyOptions(optFns)

	var tc *cache.TensorCache
	if opts.tensorCacheBytes > 0 {
		tc = cache.NewTensorCache(opts.tensorCacheBytes, opts.controller)
	}

	return &Session{
		store: store,
		opts:  opts,
		cache: tc,
	}
}

// Switch loads the named scene and makes it current.
//
// Concurrent switches race: a slow load that a later Switch overtook
// returns ErrSuperseded instead of clobbering the newer scene. A failed
// switch leaves the previous current scene in place.
func (s *Session) Switch(ctx context.Context, manifestName string) (*Scene, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.token++
	my := s.token
	s.mu.Unlock()

	start := time.Now()
	sc, err := loadScene(ctx, s.store, manifestName, &s.opts, s.cache)
	s.opts.metricsCollector.RecordSceneLoad(time.Since(start), err)

	variant := ""
	if sc != nil {
		variant = sc.resolution.Key
	}
	s.opts.logger.LogSceneLoad(ctx, manifestName, variant, time.Since(start), err)

	if err != nil {
		return nil, translateError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.token != my {
		return nil, ErrSuperseded
	}
	s.current = sc
	return sc, nil
}

// Current returns the current scene, or nil when no Switch has completed.
func (s *Session) Current() *Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Invalidate drops any cached tensors for the named manifest, forcing the
// next Switch to it to re-fetch. Use after republishing a scene in place.
func (s *Session) Invalidate(manifestName string) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{scene.KeyFP32, scene.KeyInt8, scene.KeyInt4} {
		s.cache.Invalidate(manifestName + "|" + key)
	}
}

// CacheStats returns tensor-cache hit/miss counters. Zero when the cache
// is disabled.
func (s *Session) CacheStats() (hits, misses int64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Stats()
}

// Close drops the current scene and releases cached tensors. Queries on
// already-held *Scene values keep working; further Switch calls fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}
