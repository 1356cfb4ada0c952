// Package api hosts the HTTP server, middleware, and JSON handlers. Notable routes:
//   - GET /cablecar/hours, /cablecar/notices, /races, /weather/now, /videos/latest
//     answer 200 with either a payload or {"ok":false,"error":...}.
//   - GET /healthz / readyz for probes.
//   - GET /metrics for Prometheus scraping.
package api
