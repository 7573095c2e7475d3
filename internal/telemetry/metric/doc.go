// Package metric provides Prometheus metrics for meshterm.
//
// It counts terminal input (lines by kind, commands by result) and mesh
// traffic (sends by kind and result, neighbor count, ping round trips),
// and exposes them in Prometheus text format.
//
// All recording methods are safe on a nil *Registry so components can
// run without metrics.
package metric
