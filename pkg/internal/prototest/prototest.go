// Package prototest compiles the .proto fixtures used by tests into
// serialized FileDescriptorSets carrying source info.
package prototest

import (
	"context"
	"embed"
	"sort"
	"testing"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

//go:embed testdata/*.proto
var testdata embed.FS

// Fixture file names
const (
	Items  = "items.proto"
	Node   = "node.proto"
	Legacy = "legacy.proto"
	Upload = "upload.proto"
)

// Sources returns the fixtures plus the annotation schema sources, keyed by
// import path.
func Sources(t testing.TB) map[string]string {
	t.Helper()
	sources := annotations.Sources()
	for _, name := range []string{Items, Node, Legacy, Upload} {
		data, err := testdata.ReadFile("testdata/" + name)
		require.NoError(t, err)
		sources[name] = string(data)
	}
	return sources
}

// Set compiles the named files, with extra sources available for import,
// into a FileDescriptorSet ordered so that dependencies come first.
func Set(t testing.TB, extra map[string]string, names ...string) *descriptorpb.FileDescriptorSet {
	t.Helper()
	sources := Sources(t)
	for name, content := range extra {
		sources[name] = content
	}
	sort.Strings(names)

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(sources),
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	files, err := compiler.Compile(context.Background(), names...)
	require.NoError(t, err)

	set := &descriptorpb.FileDescriptorSet{}
	seen := make(map[string]bool)
	var add func(fd protoreflect.FileDescriptor)
	add = func(fd protoreflect.FileDescriptor) {
		if seen[fd.Path()] {
			return
		}
		seen[fd.Path()] = true
		imports := fd.Imports()
		for i := 0; i < imports.Len(); i++ {
			add(imports.Get(i).FileDescriptor)
		}
		set.File = append(set.File, toProto(fd))
	}
	for _, file := range files {
		add(file)
	}
	return set
}

// Bytes is Set, serialized
func Bytes(t testing.TB, names ...string) []byte {
	t.Helper()
	data, err := proto.Marshal(Set(t, nil, names...))
	require.NoError(t, err)
	return data
}

// All serializes every fixture into one set
func All(t testing.TB) []byte {
	t.Helper()
	return Bytes(t, Items, Node)
}

func toProto(fd protoreflect.FileDescriptor) *descriptorpb.FileDescriptorProto {
	if res, ok := fd.(linker.Result); ok {
		return res.FileDescriptorProto()
	}
	return protodesc.ToFileDescriptorProto(fd)
}
