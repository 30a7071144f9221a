// Package server is the optional admin HTTP surface, built on Gin.
//
// Routes:
//
//   - GET /health: aggregated component health, 503 when any is unhealthy
//   - GET /info: service name, build version and uptime
//   - GET /accounts?page=N: ten accounts per page plus the total
//   - GET /jobs: the number of queued jobs
//
// The server binds to 127.0.0.1 by default and carries no authentication.
package server
