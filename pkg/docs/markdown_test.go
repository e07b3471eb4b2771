package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/internal/prototest"
)

func TestMarkdownExport(t *testing.T) {
	g := newGenerator(t)
	doc, err := g.GenerateFileByName(prototest.Items)
	require.NoError(t, err)

	md := NewMarkdownExporter().Export(doc)
	assert.True(t, strings.HasPrefix(md, "# pkg\n\n**File:** `items.proto`  \n**Syntax:** `proto3`\n\n"))
	assert.Contains(t, md, "- [Services](#services)\n- [Messages](#messages)\n- [Enums](#enums)\n")
	assert.Contains(t, md, "### ItemService\n\n")
	assert.Contains(t, md, "##### `SubscribeItems` (bidirectional streaming)\n\n")
	assert.Contains(t, md, "**HTTP:** `PATCH /api/items/{id}`\n\n")
	assert.Contains(t, md, "**WebSocket topic:** `items`\n\n")
	assert.Contains(t, md, "| id | id | `string` | - |  Item identifier. |\n")
	assert.Contains(t, md, "| host | host | `string` | - | (oneof source)  Origin host. |\n")
	assert.NotContains(t, md, "LabelsEntry")
}

func TestMarkdownExportMethod(t *testing.T) {
	g := newGenerator(t)
	exporter := NewMarkdownExporter()

	t.Run("route", func(t *testing.T) {
		page, err := g.MethodPage(".pkg.ItemService.GetItem")
		require.NoError(t, err)

		md := exporter.ExportMethod(page)
		assert.True(t, strings.HasPrefix(md, "# GetItem\n\n Get one item.\n\n"))
		assert.Contains(t, md, "## URI Template\n\n```\nGET /api/items/{id}/{name*}\n```\n\n")
		assert.Contains(t, md, "## Route Parameters\n\n- `id` (`{id}`): Item identifier.\n- `name` (`{name*}`): Item name.\n\n")
		assert.Contains(t, md, "## Query Parameters\n\n- `expand`: Include children.\n\n")
		assert.NotContains(t, md, "## Request Body")
		assert.Contains(t, md, "## Response Type\n\n```typescript\n// An item.\n")
		assert.Contains(t, md, "## Related Types\n\n```typescript\ninterface Label {\n")
	})

	t.Run("websocket", func(t *testing.T) {
		page, err := g.MethodPage(".pkg.ItemService.SubscribeItems")
		require.NoError(t, err)

		md := exporter.ExportMethod(page)
		assert.Contains(t, md, "> "+noteWebSocketClientStreaming+"\n\n")
		assert.Contains(t, md, "**Topic:** `items`\n\n")
		assert.Contains(t, md, "## Input Type\n\n```typescript\ninterface SubscribeItemsRequest {\n")
		assert.Contains(t, md, "## Output Type\n\n")
	})

	t.Run("rpc", func(t *testing.T) {
		page, err := g.MethodPage(".pkg.ItemService.Ping")
		require.NoError(t, err)

		md := exporter.ExportMethod(page)
		assert.Equal(t, "# Ping\n\n```protobuf\nrpc Ping (.google.protobuf.Empty) returns (.google.protobuf.Empty)\n```\n\n", md)
	})
}
