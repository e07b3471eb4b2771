package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/platinummonkey/protodoc/pkg/internal/prototest"
)

func buildItems(t *testing.T) *Index {
	t.Helper()
	idx, err := Build(prototest.All(t))
	require.NoError(t, err)
	return idx
}

func TestBuild(t *testing.T) {
	idx := buildItems(t)

	tests := []struct {
		symbol string
		kind   Kind
		pkg    string
	}{
		{".pkg.Item", KindMessage, "pkg"},
		{".pkg.Item.id", KindField, "pkg"},
		{".pkg.Item.source", KindOneof, "pkg"},
		{".pkg.Item.LabelsEntry", KindMessage, "pkg"},
		{".pkg.Item.Kind", KindEnum, "pkg"},
		{".pkg.Item.Kind.PHYSICAL", KindEnumValue, "pkg"},
		{".pkg.Status", KindEnum, "pkg"},
		{".pkg.Status.OK", KindEnumValue, "pkg"},
		{".pkg.ItemService", KindService, "pkg"},
		{".pkg.ItemService.GetItem", KindMethod, "pkg"},
		{".graph.Node", KindMessage, "graph"},
		{".google.protobuf.Timestamp", KindMessage, "google.protobuf"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			entry, err := idx.Resolve(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, entry.Kind)
			assert.Equal(t, tt.symbol, entry.Symbol)

			pkg, ok := idx.Package(tt.symbol)
			assert.True(t, ok)
			assert.Equal(t, tt.pkg, pkg)
			assert.Equal(t, tt.pkg, entry.Package)
		})
	}

	assert.Equal(t, len(idx.Symbols()), idx.Len())
}

func TestBuildDecodeError(t *testing.T) {
	_, err := Build([]byte("not a descriptor set"))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 20, decodeErr.Size)
	assert.NotNil(t, decodeErr.Unwrap())
}

func TestBuildEmpty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Files())
}

func TestBuildDuplicateSymbol(t *testing.T) {
	file := func(name string) *descriptorpb.FileDescriptorProto {
		return &descriptorpb.FileDescriptorProto{
			Name:        proto.String(name),
			Package:     proto.String("dup"),
			MessageType: []*descriptorpb.DescriptorProto{{Name: proto.String("Thing")}},
		}
	}
	_, err := FromSet(&descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{file("a.proto"), file("b.proto")}})
	assert.ErrorContains(t, err, "duplicate symbol .dup.Thing")
}

func TestNoPackage(t *testing.T) {
	set := &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{{
		Name:        proto.String("bare.proto"),
		MessageType: []*descriptorpb.DescriptorProto{{Name: proto.String("Bare")}},
	}}}
	idx, err := FromSet(set)
	require.NoError(t, err)

	entry, err := idx.Resolve(".Bare")
	require.NoError(t, err)
	assert.Equal(t, "", entry.Package)
	assert.Equal(t, "Bare", entry.Name())
}

func TestDeclarationOrder(t *testing.T) {
	idx, err := Build(prototest.Bytes(t, prototest.Node))
	require.NoError(t, err)

	var graph []string
	for _, symbol := range idx.Symbols() {
		if pkg, _ := idx.Package(symbol); pkg == "graph" {
			graph = append(graph, symbol)
		}
	}
	assert.Equal(t, []string{
		".graph.GraphService",
		".graph.GraphService.GetNode",
		".graph.Node",
		".graph.Node.name",
		".graph.Node.parent",
		".graph.Node.children",
		".graph.Node.index",
		".graph.Node.edge",
		".graph.Node.IndexEntry",
		".graph.Node.IndexEntry.key",
		".graph.Node.IndexEntry.value",
		".graph.Edge",
		".graph.Edge.target",
		".graph.Edge.weight",
		".graph.Weight",
		".graph.Weight.value",
	}, graph)
}

func TestTypedLookups(t *testing.T) {
	idx := buildItems(t)

	msg, err := idx.Message(".pkg.Config")
	require.NoError(t, err)
	assert.Equal(t, "Config", msg.GetName())

	enum, err := idx.Enum(".pkg.Severity")
	require.NoError(t, err)
	assert.Len(t, enum.GetValue(), 2)

	svc, err := idx.Service(".pkg.ItemService")
	require.NoError(t, err)
	assert.Len(t, svc.GetMethod(), 7)

	field, err := idx.Field(".pkg.Config.display_name")
	require.NoError(t, err)
	assert.Equal(t, "displayName", JSONName(field))

	_, err = idx.Message(".pkg.Status")
	var mismatch *KindMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, KindMessage, mismatch.Want)
	assert.Equal(t, KindEnum, mismatch.Got)
	assert.EqualError(t, err, "symbol .pkg.Status is a enum, not a message")

	_, err = idx.Method(".pkg.ItemService.Missing")
	var unknown *UnknownSymbolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, ".pkg.ItemService.Missing", unknown.Symbol)
}

func TestMethodAnnotations(t *testing.T) {
	idx := buildItems(t)

	get, err := idx.Method(".pkg.ItemService.GetItem")
	require.NoError(t, err)
	require.NotNil(t, get.Route)
	assert.Equal(t, "/api/items/{id}/{name*}", get.Route.Get)
	assert.False(t, get.Route.HasBody)
	assert.Equal(t, "yamcs.api.route", get.Route.Extension)
	assert.Nil(t, get.WebSocket)

	update, err := idx.Method(".pkg.ItemService.UpdateItem")
	require.NoError(t, err)
	assert.True(t, update.Route.HasBody)
	assert.Equal(t, "config", update.Route.Body)

	del, err := idx.Method(".pkg.ItemService.DeleteItem")
	require.NoError(t, err)
	assert.Equal(t, "google.api.http", del.Route.Extension)

	sub, err := idx.Method(".pkg.ItemService.SubscribeItems")
	require.NoError(t, err)
	assert.Nil(t, sub.Route)
	require.NotNil(t, sub.WebSocket)
	assert.Equal(t, "items", sub.WebSocket.Topic)

	ping, err := idx.Method(".pkg.ItemService.Ping")
	require.NoError(t, err)
	assert.Nil(t, ping.Route)
	assert.Nil(t, ping.WebSocket)
}

func TestFieldType(t *testing.T) {
	idx := buildItems(t)

	field, err := idx.Field(".pkg.Item.labels")
	require.NoError(t, err)
	target, err := idx.FieldType(".pkg.Item.labels", field)
	require.NoError(t, err)
	assert.Equal(t, ".pkg.Item.LabelsEntry", target.Symbol)
	assert.True(t, IsMapEntry(target.Message))

	dangling := &descriptorpb.FieldDescriptorProto{TypeName: proto.String(".pkg.Gone")}
	_, err = idx.FieldType(".pkg.Item.gone", dangling)
	assert.EqualError(t, err, "unknown symbol .pkg.Gone (referenced by .pkg.Item.gone)")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, buildItems(t).Validate())

	set := prototest.Set(t, nil, prototest.Node)
	graph := set.File[len(set.File)-1]
	graph.MessageType[1].Field[0].TypeName = proto.String(".graph.Missing")
	graph.Service[0].Method[0].OutputType = proto.String(".graph.Gone")

	idx, err := FromSet(set)
	require.NoError(t, err, "dangling references are not checked while indexing")

	err = idx.Validate()
	assert.ErrorContains(t, err, "unknown symbol .graph.Missing (referenced by .graph.Edge.target)")
	assert.ErrorContains(t, err, "unknown symbol .graph.Gone (referenced by .graph.GraphService.GetNode)")
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Item", ShortName(".pkg.Item"))
	assert.Equal(t, "Item", ShortName("Item"))
	assert.Equal(t, ".pkg.Item.id", Join(".pkg.Item", "id"))
	assert.Equal(t, "", PackagePrefix(""))
	assert.Equal(t, ".a.b", PackagePrefix("a.b"))
	assert.Equal(t, "enum value", KindEnumValue.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestJSONName(t *testing.T) {
	tests := []struct {
		field *descriptorpb.FieldDescriptorProto
		want  string
	}{
		{&descriptorpb.FieldDescriptorProto{Name: proto.String("display_name")}, "displayName"},
		{&descriptorpb.FieldDescriptorProto{Name: proto.String("id")}, "id"},
		{&descriptorpb.FieldDescriptorProto{Name: proto.String("a_b_c")}, "aBC"},
		{&descriptorpb.FieldDescriptorProto{Name: proto.String("x_1")}, "x1"},
		{&descriptorpb.FieldDescriptorProto{Name: proto.String("x"), JsonName: proto.String("custom")}, "custom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JSONName(tt.field), tt.field.GetName())
	}
}
