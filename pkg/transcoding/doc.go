// Package transcoding resolves the HTTP view of RPC methods: the route verb
// and URI template, its path parameters, the query parameters of GET routes
// and the message that forms the request body.
//
// A route body selector other than "*" promotes one input field to the HTTP
// body; the remaining input fields are then read from the URI:
//
//	option (yamcs.api.route) = { put: "/api/items/{id}" body: "config" };
//
// Here EffectiveBodySymbol returns the type of the input field whose JSON
// name is "config".
package transcoding
