// Package api serves read-only introspection queries over the current
// descriptor snapshot.
//
// # Endpoints
//
//	GET /healthz                             snapshot generation and digest
//	GET /v1/symbols?kind=message&prefix=.pkg  symbols in declaration order
//	GET /v1/symbols/{symbol}                 one declaration
//	GET /v1/comments/{symbol}                leading comment
//	GET /v1/messages/{symbol}/signature      rendered message (?exclude=a,b&format=text)
//	GET /v1/enums/{symbol}/signature         rendered enum (?format=text)
//	GET /v1/methods/{symbol}                 method page (?format=markdown)
//	GET /v1/methods/{symbol}/related         related types and enums
//	GET /v1/methods/{symbol}/route           HTTP route, body type and parameters
//	GET /v1/services                         services and their methods
//	GET /v1/files                            descriptor files
//	GET /v1/files/{name}                     file documentation (?format=markdown)
//	GET /metrics                             Prometheus metrics
//
// Symbols are fully qualified; the leading dot may be omitted in URLs.
//
// # Errors
//
// Unknown symbols (and symbols of the wrong kind) map to 404, a route body
// naming a field the request message lacks maps to 422, and queries made
// before the first snapshot loaded map to 503. Error bodies carry the
// request ID.
//
// # Caching
//
// Rendered signatures are kept in an expiring LRU cache keyed by snapshot
// generation. The cache is purged whenever the registry publishes a new
// snapshot.
package api
