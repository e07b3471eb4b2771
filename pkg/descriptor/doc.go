// Package descriptor indexes a compiled protobuf FileDescriptorSet by symbol.
//
// # Symbols
//
// A symbol is the dotted, fully-qualified name of a declaration, prefixed
// with a dot the way protoc writes type references:
//
//	.pkg.Outer            message
//	.pkg.Outer.Inner.id   field of a nested message
//	.pkg.Status.OK        enum value
//	.pkg.ItemsApi.GetItem method
//
// Messages, fields, oneofs, enums, enum values, services and methods all get
// an entry. Method entries also carry the HTTP route and WebSocket topic
// decoded from their options (see package annotations).
//
// # Usage
//
//	idx, err := descriptor.Build(data)
//	entry, err := idx.Resolve(".pkg.ItemsApi.GetItem")
//
// The Index is immutable after Build returns.
package descriptor
