// Package api contains the HTTP handlers, request/response models, and
// error mapping for the REST API. Routing and middleware wiring live in
// cmd/server.
package api
