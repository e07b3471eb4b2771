// Package cli provides the protodoc command-line interface.
//
// # Overview
//
// Every query command loads a serialized FileDescriptorSet (as written by
// `protoc --include_imports --include_source_info -o set.binpb`), indexes it
// once and prints the answer. Flags go before the symbol argument; symbols
// may omit the leading dot.
//
// # Commands
//
// symbols: List declared symbols
//
//	protodoc symbols -set set.binpb -kind message -prefix .pkg
//
// comment: Print the leading comment of a declaration
//
//	protodoc comment -set set.binpb .pkg.Item
//
// render: Render the signature of a message or enum
//
//	protodoc render -set set.binpb -exclude id,name .pkg.GetItemRequest
//
// route: Show the HTTP route, body type and parameters of a method
//
//	protodoc route -set set.binpb .pkg.ItemService.UpdateItem
//
// related: List the messages and enums a method exposes
//
//	protodoc related -set set.binpb .pkg.ItemService.GetItem
//
// method: Print the Markdown page of a method
//
//	protodoc method -set set.binpb .pkg.ItemService.GetItem
//
// render-all: Write Markdown pages for every method and file
//
//	protodoc render-all -set set.binpb -out ./site -workers 8
//
// validate: Check that every reference resolves, every route body names an
// input field and every declaration renders
//
//	protodoc validate -set s3://descriptors/api/set.binpb
//
// serve: Run the HTTP query service, reloading on change or schedule
//
//	protodoc serve -config protodoc.yaml
//
// # Configuration
//
// Commands read the same configuration as the server (see package config):
// an optional YAML file passed with -config, a .env file and PROTODOC_*
// environment variables. -set overrides the configured source.
package cli
