// Package engine answers spatial attention queries over a decoded tensor
// and its token layout.
//
// Two symmetric directions share the same primitives:
//
//   - Inverse: given selected image patches, which BEV queries attend to
//     them? Produces a gridSize x gridSize map of aggregated scores.
//   - Forward: given one BEV query and a camera, how strongly does the
//     query attend to each of that camera's patches?
//
// Head selection is explicit for both: either the mean over all heads or a
// single head index. The zero HeadSelection is invalid so a forgotten
// selection fails loudly instead of silently defaulting.
//
// All computation is synchronous over immutable inputs; an Engine is safe
// for concurrent use.
package engine
