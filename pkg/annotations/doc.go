// Package annotations decodes HTTP route and WebSocket topic bindings from RPC
// method options.
//
// Descriptor sets carry custom method options as raw extension bytes. The
// package compiles the extension schema (embedded yamcs and google.api
// annotation files, optionally extended by callers) with protocompile, then
// re-reads the options through a dynamic type registry:
//
//	schema, err := annotations.Default()
//	route, topic, err := schema.Decode(method.GetOptions())
package annotations
