// Package health exposes GET /health. It is registered ahead of the API key
// middleware so load balancers can reach it.
package health
