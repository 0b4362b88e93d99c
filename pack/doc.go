// Package pack is the producer side of scene publishing: it quantizes
// fp32 attention tensors into the int8 and int4 side-car formats, writes
// scene packs (payloads, scale arrays, manifest) to a blob store, and
// publishes catalog indexes so viewers can discover scenes.
//
// The quantization here is the inverse of package decode: everything pack
// writes, decode reads back bit-exactly (the scales themselves are exact;
// the quantized values round-trip within one quantization step).
package pack
