// Package typegraph finds the message and enum types a method exposes beyond
// its request body and response, so that their declarations can be
// documented next to the method.
//
// The walk is depth-first over message-typed fields. It does not enter the
// exclusion list (well-known types such as Timestamp), does not report map
// entry messages (only their value type), and visits each message at most
// once per traversal, which also makes it terminate on recursive messages.
package typegraph
