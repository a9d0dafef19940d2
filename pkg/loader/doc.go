// Package loader resolves debuggee type strings to loaders and provides the
// machinery loaders share.
//
// A Registry holds Creators grouped by geometry.Kind. Find scans the kinds
// allowed by a KindSet in enumeration order and, within a kind, the creators
// in registration order; the first creator that accepts a type builds the
// Loader, which is then cached under the exact type string until Invalidate
// is called.
//
// Loaders extract values through two paths. The parsed path evaluates one
// expression per element. The memory path reads raw bytes and decodes them
// with converters. WithFallback runs the memory path first and retries with
// the parsed path from scratch when memory is unavailable or any read fails.
// A Token threaded through Env aborts either path at the next element
// boundary.
package loader
