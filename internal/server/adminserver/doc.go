// Package adminserver serves the local operator HTTP endpoint.
//
// It is off by default and exposes:
//
//   - GET /healthz       liveness
//   - GET /readyz        readiness (node has at least joined itself)
//   - GET /metrics       Prometheus scrape endpoint
//   - GET /v1/status     local mesh node status (JSON)
//   - GET /v1/neighbors  direct neighbors (JSON)
package adminserver
