// Package cache provides LRU caching for scene data.
//
// # Block Cache
//
// LRUBlockCache stores recently accessed byte blocks fetched from a blob
// store. The caching blob store uses it to avoid re-fetching manifest and
// payload blocks from remote origins.
//
// # Tensor Cache
//
// TensorCache stores fully decoded attention tensors keyed by the resolved
// variant location, so switching back to a recently viewed scene does not
// re-fetch and re-dequantize the payload. Entries are invalidated explicitly
// on scene eviction or Close.
//
// Both caches integrate with resource.Controller for global memory limits.
package cache
