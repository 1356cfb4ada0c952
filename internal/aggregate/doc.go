// Package aggregate runs one feature end to end: cache check, fetch, extract,
// normalize, filter, merge, cache write. Every method returns a pipeline.Result so
// the transport can always answer with a well-formed payload.
package aggregate
