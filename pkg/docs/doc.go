// Package docs assembles browsable documentation from an indexed descriptor
// set.
//
// # Documentation Structure
//
// Generate walks every file and produces a Documentation tree of messages,
// enums and services with their comments, JSON names and rendered field
// types. Map entry messages are folded into their map fields.
//
// MethodPage collects everything a reader needs to call one method: its
// HTTP route or WebSocket topic, route and query parameters, the
// signatures of the request body and response, and the signatures of every
// related type.
//
// # Usage Example
//
//	generator := docs.NewGenerator(idx, table, nil)
//	page, err := generator.MethodPage(".pkg.ItemService.GetItem")
//	if err != nil {
//		return err
//	}
//	fmt.Print(docs.NewMarkdownExporter().ExportMethod(page))
package docs
