package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/internal/prototest"
)

func sampleFile() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("sample.proto"),
		Package: proto.String("pkg"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Item"),
			Field: []*descriptorpb.FieldDescriptorProto{
				{Name: proto.String("id")},
				{Name: proto.String("name")},
			},
			NestedType: []*descriptorpb.DescriptorProto{{
				Name:  proto.String("Part"),
				Field: []*descriptorpb.FieldDescriptorProto{{Name: proto.String("size")}},
			}},
			EnumType:  []*descriptorpb.EnumDescriptorProto{{Name: proto.String("Kind")}},
			OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String("source")}},
		}},
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Status"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("OK")},
				{Name: proto.String("FAILED")},
			},
		}},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("ItemService"),
			Method: []*descriptorpb.MethodDescriptorProto{{Name: proto.String("GetItem")}},
		}},
	}
}

func TestPathToSymbol(t *testing.T) {
	file := sampleFile()

	tests := []struct {
		name string
		path []int32
		want string
	}{
		{"message", []int32{4, 0}, ".pkg.Item"},
		{"message name", []int32{4, 0, 1}, ".pkg.Item"},
		{"field", []int32{4, 0, 2, 1}, ".pkg.Item.name"},
		{"field type", []int32{4, 0, 2, 1, 5}, ".pkg.Item.name"},
		{"nested message field", []int32{4, 0, 3, 0, 2, 0}, ".pkg.Item.Part.size"},
		{"nested enum", []int32{4, 0, 4, 0}, ".pkg.Item.Kind"},
		{"oneof", []int32{4, 0, 8, 0}, ".pkg.Item.source"},
		{"enum", []int32{5, 0}, ".pkg.Status"},
		{"enum value", []int32{5, 0, 2, 1}, ".pkg.Status.FAILED"},
		{"enum value number", []int32{5, 0, 2, 1, 2}, ".pkg.Status.FAILED"},
		{"service", []int32{6, 0}, ".pkg.ItemService"},
		{"method", []int32{6, 0, 2, 0}, ".pkg.ItemService.GetItem"},
		{"method options", []int32{6, 0, 2, 0, 4, 1000}, ".pkg.ItemService.GetItem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := PathToSymbol(file, tt.path)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathToSymbolNoDeclaration(t *testing.T) {
	file := sampleFile()

	tests := []struct {
		name string
		path []int32
	}{
		{"file", nil},
		{"file options", []int32{8}},
		{"file option", []int32{8, 1}},
		{"source code info", []int32{9}},
		{"extension range", []int32{4, 0, 5}},
		{"extension range entry", []int32{4, 0, 5, 0}},
		{"nested extension range", []int32{4, 0, 3, 0, 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := PathToSymbol(file, tt.path)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestPathToSymbolErrors(t *testing.T) {
	file := sampleFile()

	tests := []struct {
		name   string
		path   []int32
		tag    int32
		state  string
		reason string
	}{
		{"package", []int32{2}, 2, "file", "unexpected tag"},
		{"syntax", []int32{12}, 12, "file", "unexpected tag"},
		{"file extension", []int32{7, 0}, 7, "file", "unexpected tag"},
		{"message options", []int32{4, 0, 7}, 7, "message", "unexpected tag"},
		{"enum name", []int32{5, 0, 1}, 1, "enum", "unexpected tag"},
		{"service options", []int32{6, 0, 3}, 3, "service", "unexpected tag"},
		{"missing index", []int32{4}, 4, "file", "missing index after tag"},
		{"index out of range", []int32{4, 3}, 4, "file", "index 3 out of range after tag"},
		{"negative index", []int32{5, 0, 2, -1}, 2, "enum", "index -1 out of range after tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PathToSymbol(file, tt.path)
			var tagErr *UnexpectedPathTagError
			require.ErrorAs(t, err, &tagErr)
			assert.Equal(t, "sample.proto", tagErr.File)
			assert.Equal(t, tt.path, tagErr.Path)
			assert.Equal(t, tt.tag, tagErr.Tag)
			assert.Equal(t, tt.state, tagErr.State)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestPathToSymbolNoPackage(t *testing.T) {
	file := sampleFile()
	file.Package = nil

	got, ok, err := PathToSymbol(file, []int32{4, 0, 2, 0})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ".Item.id", got)
}

func located(path []int32, comment string) *descriptorpb.SourceCodeInfo_Location {
	return &descriptorpb.SourceCodeInfo_Location{Path: path, LeadingComments: proto.String(comment)}
}

func TestResolve(t *testing.T) {
	file := sampleFile()
	file.SourceCodeInfo = &descriptorpb.SourceCodeInfo{Location: []*descriptorpb.SourceCodeInfo_Location{
		{Path: []int32{4, 0, 2, 0}},
		located([]int32{4, 0}, " An item.\n"),
		located([]int32{4, 0, 2, 0}, " First.\n"),
		located([]int32{4, 0, 2, 0}, " Second.  \n\n"),
		{Path: []int32{2}, TrailingComments: proto.String(" package\n")},
		located([]int32{5, 0, 2, 0}, ""),
		located([]int32{8, 1}, " Java package.\n"),
		located([]int32{4, 0, 5, 0}, " Reserved for extensions.\n"),
	}}

	table, err := Resolve([]*descriptorpb.FileDescriptorProto{file})
	require.NoError(t, err)

	comment, ok := table.Lookup(".pkg.Item")
	assert.True(t, ok)
	assert.Equal(t, " An item.", comment)

	comment, _ = table.Lookup(".pkg.Item.id")
	assert.Equal(t, " Second.", comment, "later locations replace earlier ones")

	comment, ok = table.Lookup(".pkg.Status.OK")
	assert.True(t, ok, "empty leading comments are still recorded")
	assert.Empty(t, comment)

	_, ok = table.Lookup(".pkg")
	assert.False(t, ok, "locations without leading comments are ignored")
	assert.Len(t, table, 3)
	assert.Equal(t, " An item.", table[".pkg.Item"], "extension range comments belong to no symbol")
}

func TestResolveRejectsUnexpectedPath(t *testing.T) {
	file := sampleFile()
	file.SourceCodeInfo = &descriptorpb.SourceCodeInfo{Location: []*descriptorpb.SourceCodeInfo_Location{
		located([]int32{12}, " syntax\n"),
	}}

	_, err := Resolve([]*descriptorpb.FileDescriptorProto{file})
	var tagErr *UnexpectedPathTagError
	assert.ErrorAs(t, err, &tagErr)
}

func TestResolveCompiled(t *testing.T) {
	set := prototest.Set(t, nil, prototest.Items)
	table, err := Resolve(set.GetFile())
	require.NoError(t, err)

	want := map[string]string{
		".pkg.Status":                  " Outcome of an operation.",
		".pkg.Status.OK":               " Everything went fine.",
		".pkg.Item":                    " An item.\n Items nest.",
		".pkg.Item.id":                 " Item identifier.",
		".pkg.Item.host":               " Origin host.",
		".pkg.Item.Kind":               " Kind of item.",
		".pkg.Item.Kind.PHYSICAL":      " A physical item.",
		".pkg.Config.display_name":     " Display name.",
		".pkg.ItemService":             " Manages items.",
		".pkg.ItemService.GetItem":     " Get one item.",
		".pkg.GetItemRequest.expand":   " Include children.",
		".pkg.ItemService.UpdateItem":  " Update the configuration of an item.",
	}
	for symbol, comment := range want {
		got, ok := table.Lookup(symbol)
		if assert.True(t, ok, symbol) {
			assert.Equal(t, comment, got, symbol)
		}
	}

	_, ok := table.Lookup(".pkg.Label")
	assert.False(t, ok)
}

func TestResolveLegacy(t *testing.T) {
	set := prototest.Set(t, nil, prototest.Legacy)
	table, err := Resolve(set.GetFile())
	require.NoError(t, err)

	assert.Equal(t, Table{
		".legacy.Record":     " A record with room to grow.",
		".legacy.Record.key": " Record key.",
		".legacy.Record.Tag": " Nested with its own range.",
	}, table)
}

func TestResolvedSymbolsAreIndexed(t *testing.T) {
	set := prototest.Set(t, nil, prototest.Items, prototest.Node, prototest.Legacy)
	idx, err := descriptor.FromSet(set)
	require.NoError(t, err)

	table, err := Resolve(idx.Files())
	require.NoError(t, err)
	require.NotEmpty(t, table)
	for symbol := range table {
		assert.True(t, idx.Has(symbol), "comment for %s has no declaration", symbol)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		indent  string
		prefix  string
		want    string
	}{
		{"single line", " Hello.", "", "//", "// Hello.\n"},
		{"indented", " Hello.", "  ", "//", "  // Hello.\n"},
		{"multi line", " One.\n Two.", "", "//", "// One.\n// Two.\n"},
		{"blank line kept", " One.\n\n Two.", "", "//", "// One.\n//\n// Two.\n"},
		{"trailing whitespace", " One.   \n Two.\t", "", "#", "# One.\n# Two.\n"},
		{"empty", "", "  ", "//", "  //\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.comment, tt.indent, tt.prefix))
		})
	}

	table := Table{".pkg.Item": " An item.\n Items nest."}
	text, ok := table.Formatted(".pkg.Item", "", "//")
	assert.True(t, ok)
	assert.Equal(t, "// An item.\n// Items nest.\n", text)

	_, ok = table.Formatted(".pkg.Missing", "", "//")
	assert.False(t, ok)

	var empty Table
	_, ok = empty.Lookup(".pkg.Item")
	assert.False(t, ok)
}
