package docs

import (
	"fmt"
	"strings"
)

// MarkdownExporter exports documentation to Markdown format
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export exports the documentation of one file to Markdown
func (e *MarkdownExporter) Export(doc *Documentation) string {
	var b strings.Builder

	// Title
	title := doc.PackageName
	if title == "" {
		title = doc.FileName
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))

	b.WriteString(fmt.Sprintf("**File:** `%s`  \n", doc.FileName))
	b.WriteString(fmt.Sprintf("**Syntax:** `%s`\n\n", doc.Syntax))

	// Table of contents
	b.WriteString("## Table of Contents\n\n")
	if len(doc.Services) > 0 {
		b.WriteString("- [Services](#services)\n")
	}
	if len(doc.Messages) > 0 {
		b.WriteString("- [Messages](#messages)\n")
	}
	if len(doc.Enums) > 0 {
		b.WriteString("- [Enums](#enums)\n")
	}
	b.WriteString("\n")

	if len(doc.Services) > 0 {
		b.WriteString("## Services\n\n")
		for _, svc := range doc.Services {
			e.writeService(&b, svc)
		}
	}

	if len(doc.Messages) > 0 {
		b.WriteString("## Messages\n\n")
		for _, msg := range doc.Messages {
			e.writeMessage(&b, msg, 0)
		}
	}

	if len(doc.Enums) > 0 {
		b.WriteString("## Enums\n\n")
		for _, enum := range doc.Enums {
			e.writeEnum(&b, enum)
		}
	}

	return b.String()
}

// ExportMethod exports a method page to Markdown. Signatures are written as
// typescript code blocks.
func (e *MarkdownExporter) ExportMethod(page *MethodPage) string {
	var b strings.Builder
	method := page.Method

	b.WriteString(fmt.Sprintf("# %s\n\n", method.Name))
	if method.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", method.Description))
	}
	if method.Deprecated {
		b.WriteString("**⚠️ Deprecated**\n\n")
	}
	for _, note := range page.Notes {
		b.WriteString(fmt.Sprintf("> %s\n\n", note))
	}

	switch page.Kind {
	case KindRoute:
		b.WriteString("## URI Template\n\n")
		writeCode(&b, "", page.URITemplate)
		e.writeParameters(&b, "Route Parameters", page.RouteParameters)
		e.writeParameters(&b, "Query Parameters", page.QueryParameters)
		if page.RequestBody != "" {
			b.WriteString("## Request Body\n\n")
			writeCode(&b, "typescript", page.RequestBody)
		}
	case KindWebSocket:
		b.WriteString(fmt.Sprintf("**Topic:** `%s`\n\n", method.WebSocketTopic))
		if page.InputType != "" {
			b.WriteString("## Input Type\n\n")
			writeCode(&b, "typescript", page.InputType)
		}
	default:
		writeCode(&b, "protobuf", fmt.Sprintf("rpc %s (%s) returns (%s)",
			method.Name, method.RequestType, method.ResponseType))
	}

	if page.ResponseBody != "" {
		if page.Kind == KindWebSocket {
			b.WriteString("## Output Type\n\n")
		} else {
			b.WriteString("## Response Type\n\n")
		}
		writeCode(&b, "typescript", page.ResponseBody)
	}

	if len(page.RelatedBlocks) > 0 {
		b.WriteString("## Related Types\n\n")
		for _, block := range page.RelatedBlocks {
			writeCode(&b, "typescript", block)
		}
	}

	return b.String()
}

func (e *MarkdownExporter) writeParameters(b *strings.Builder, title string, params []*ParameterDoc) {
	if len(params) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, p := range params {
		b.WriteString(fmt.Sprintf("- `%s`", p.Name))
		if p.Template != "" && p.Template != p.Name {
			b.WriteString(fmt.Sprintf(" (`%s`)", p.Template))
		}
		if p.Description != "" {
			b.WriteString(": " + strings.TrimSpace(strings.ReplaceAll(p.Description, "\n", " ")))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeCode(b *strings.Builder, lang, code string) {
	b.WriteString("```" + lang + "\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}

// writeService writes a service to markdown
func (e *MarkdownExporter) writeService(b *strings.Builder, svc *ServiceDoc) {
	b.WriteString(fmt.Sprintf("### %s\n\n", svc.Name))

	if svc.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", svc.Description))
	}

	if svc.Deprecated {
		b.WriteString("**⚠️ Deprecated**\n\n")
	}

	if len(svc.Methods) > 0 {
		b.WriteString("#### Methods\n\n")
		for _, method := range svc.Methods {
			e.writeMethod(b, method)
		}
	}
}

// writeMethod writes a method summary to markdown
func (e *MarkdownExporter) writeMethod(b *strings.Builder, method *MethodDoc) {
	streaming := ""
	if method.ClientStreaming && method.ServerStreaming {
		streaming = " (bidirectional streaming)"
	} else if method.ClientStreaming {
		streaming = " (client streaming)"
	} else if method.ServerStreaming {
		streaming = " (server streaming)"
	}

	b.WriteString(fmt.Sprintf("##### `%s`%s\n\n", method.Name, streaming))

	if method.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", method.Description))
	}

	if method.Deprecated {
		b.WriteString("**⚠️ Deprecated**\n\n")
	}

	writeCode(b, "protobuf", fmt.Sprintf("rpc %s (%s) returns (%s)",
		method.Name, method.RequestType, method.ResponseType))

	if method.HTTPMethod != "" && method.HTTPPath != "" {
		b.WriteString(fmt.Sprintf("**HTTP:** `%s %s`\n\n", method.HTTPMethod, method.HTTPPath))
	}
	if method.WebSocketTopic != "" {
		b.WriteString(fmt.Sprintf("**WebSocket topic:** `%s`\n\n", method.WebSocketTopic))
	}
}

// writeMessage writes a message to markdown
func (e *MarkdownExporter) writeMessage(b *strings.Builder, msg *MessageDoc, depth int) {
	prefix := strings.Repeat("#", 3+depth)
	b.WriteString(fmt.Sprintf("%s %s\n\n", prefix, msg.Name))

	if msg.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", msg.Description))
	}

	if msg.Deprecated {
		b.WriteString("**⚠️ Deprecated**\n\n")
	}

	// Fields table
	if len(msg.Fields) > 0 {
		b.WriteString("| Field | JSON | Type | Label | Description |\n")
		b.WriteString("|-------|------|------|-------|-------------|\n")

		for _, field := range msg.Fields {
			desc := strings.ReplaceAll(field.Description, "\n", " ")
			if field.Deprecated {
				desc = "⚠️ **Deprecated** " + desc
			}
			if field.OneofName != "" {
				desc = fmt.Sprintf("(oneof %s) %s", field.OneofName, desc)
			}

			label := field.Label
			if label == "" {
				label = "-"
			}

			b.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s |\n",
				field.Name, field.JSONName, field.Type, label, desc))
		}
		b.WriteString("\n")
	}

	for _, enum := range msg.Enums {
		e.writeEnum(b, enum)
	}

	for _, nested := range msg.NestedTypes {
		e.writeMessage(b, nested, depth+1)
	}
}

// writeEnum writes an enum to markdown
func (e *MarkdownExporter) writeEnum(b *strings.Builder, enum *EnumDoc) {
	b.WriteString(fmt.Sprintf("### %s\n\n", enum.Name))

	if enum.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", enum.Description))
	}

	if enum.Deprecated {
		b.WriteString("**⚠️ Deprecated**\n\n")
	}

	if len(enum.Values) > 0 {
		b.WriteString("| Name | Number | Description |\n")
		b.WriteString("|------|--------|-------------|\n")

		for _, value := range enum.Values {
			desc := strings.ReplaceAll(value.Description, "\n", " ")
			if value.Deprecated {
				desc = "⚠️ **Deprecated** " + desc
			}

			b.WriteString(fmt.Sprintf("| %s | %d | %s |\n",
				value.Name, value.Number, desc))
		}
		b.WriteString("\n")
	}
}
