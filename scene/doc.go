// Package scene models the scene manifest: the JSON document that describes
// a captured frame's cameras, attention tensor shape, and the encoded
// attention variants available for it.
//
// # Manifest
//
// A manifest is produced once per scene by the exporter and is immutable.
// Parse applies defaults (grid size 32, patch size 14, BEV range
// [-40,40,-40,40] meters, CLS tokens present) and validates the tensor
// shape, rejecting multi-batch tensors.
//
// # Variant Resolution
//
// ResolveVariant picks which encoded variant to decode for a requested
// precision. An explicit int8/int4 request is honored or rejected, never
// silently downgraded; auto prefers the manifest-declared default, then the
// smallest available encoding.
package scene
