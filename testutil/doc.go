// Package testutil provides testing utilities for attnlens.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic attention tensors and
// publishing complete in-memory scene fixtures.
//
// # Random Tensor Generation
//
//	rng := testutil.NewRNG(seed)
//	t := rng.AttentionTensor(8, 2500, 1506)  // rows softmax-normalized
//	u := rng.UniformTensor(8, 2500, 1506)    // uniform [0, 1)
//
// # Scene Fixtures
//
//	spec := testutil.DefaultSceneSpec()
//	manifest, src, err := spec.Write(ctx, store, "scenes/0001", rng)
package testutil
