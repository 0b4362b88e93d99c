// Package attnlens decodes quantized cross-attention tensors exported from
// autonomous-driving perception models and answers spatial attention
// queries over them.
//
// A published scene is a manifest plus side-car files: quantized attention
// payloads, scale arrays, and camera images. attnlens loads a scene from
// any blob store, dequantizes the requested precision variant, and builds
// a query engine over the BEV (bird's-eye-view) query grid and the camera
// token layout.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./scenes")
//
//	sc, err := attnlens.Load(ctx, store, "scene-0061/manifest.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Inverse query: which BEV cells attend to a region of CAM_FRONT?
//	info, _ := sc.Layout().Camera("CAM_FRONT")
//	keys, _ := region.Patches(info, region.Rect{XMin: 100, YMin: 80, XMax: 400, YMax: 300})
//	bevMap, _ := sc.Inverse(keys, engine.InverseOptions{
//	    Heads:       engine.MeanHeads(),
//	    Aggregation: engine.AggregationSum,
//	})
//
//	// Forward query: where does BEV cell (12, 20) look in CAM_FRONT?
//	q := sc.Grid().QueryIndex(12, 20)
//	patches, _ := sc.PatchAttention(q, "CAM_FRONT", engine.MeanHeads())
//
// # Precision
//
// Scenes carry fp32, int8, and packed int4 variants of the attention
// tensor. By default the manifest's recommended variant is used; request a
// specific one with WithPrecision. An explicitly requested variant that is
// absent fails with a *scene.PrecisionError rather than silently falling
// back.
//
// # Sessions
//
// Session serializes scene switching for interactive viewers: rapid
// back-to-back Switch calls discard stale completions, and decoded tensors
// are cached so returning to a recent scene skips the fetch and decode.
//
// # Key Features
//
//   - int8 per-head and packed int4 per-head-per-query dequantization
//   - Local (mmap), in-memory, HTTP, S3, and MinIO scene stores
//   - Transparent zstd/lz4 side-car decompression
//   - Inverse (image region -> BEV map) and forward (BEV cell -> camera
//     patches) queries with head selection and sum/max/mean aggregation
//   - Producer-side quantization and atomic catalog publishing (package pack)
package attnlens
