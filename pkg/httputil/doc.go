// Package httputil provides HTTP helpers shared by the query service:
// JSON and text responses, uniform error bodies, path and query parsing,
// and middleware for request IDs, logging, panic recovery and CORS.
//
//	router.Use(httputil.RequestIDMiddleware, httputil.LoggingMiddleware(logger))
//	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
//	if !ok {
//		return
//	}
//	httputil.WriteSuccess(w, result)
package httputil
