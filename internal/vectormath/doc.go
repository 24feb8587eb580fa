// Package vectormath provides pure functions for comparing embedding vectors.
//
// Both functions are deterministic, side-effect-free, and O(dimension). All
// vectors compared against each other must have equal length; a mismatch is a
// hard error (types.ErrDimensionMismatch), never silently truncated or padded.
package vectormath
