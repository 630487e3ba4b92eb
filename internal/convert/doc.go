// Package convert implements the leaf value converters invoked when a scalar
// is materialized: JSON number parsing and string unescaping.
//
// Both converters operate on raw byte views of the input and are only called
// at materialization points, never during structural indexing. Number parsing
// validates the exact JSON number grammar before delegating to strconv, since
// strconv alone accepts forms JSON forbids (leading '+', "Inf", hex floats,
// bare '.5').
package convert
