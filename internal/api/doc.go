// Package api is the HTTP adapter over the review service. It decodes and
// validates requests, maps service errors to status codes with sanitized
// messages, and renders JSON responses. Routing lives in cmd/server.
package api
