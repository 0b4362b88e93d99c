// Package decode reconstructs attention tensors from encoded side-car
// payloads.
//
// A scene's attention tensor ships in one of three encodings: raw
// little-endian float32, symmetric per-head int8 plus an H-length scale
// array, or packed per-head-per-query int4 plus an H*Q-length scale array.
// Tensor fetches the payload (and scale file, when present) from a blob
// store, validates every length against the expected shape, and
// materializes a flat float32 tensor.
//
// Payloads whose file names end in .zst or .lz4 are decompressed
// transparently after fetch; compression is a transport encoding, not a
// payload format, so all length checks apply to the decompressed bytes.
//
// Fetches are attempted exactly once with no retries. The payload and scale
// file are fetched concurrently.
package decode
