package annotations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

//go:embed proto
var embedded embed.FS

const methodOptionsName protoreflect.FullName = "google.protobuf.MethodOptions"

// Extension names looked up by default, in priority order.
var (
	DefaultRouteExtensions     = []protoreflect.FullName{"yamcs.api.route", "google.api.http"}
	DefaultWebSocketExtensions = []protoreflect.FullName{"yamcs.api.websocket"}
)

// Schema knows how to decode HTTP route and WebSocket topic extensions from
// method options. It is immutable once compiled and safe for concurrent use.
type Schema struct {
	types      *protoregistry.Types
	routes     []protoreflect.ExtensionType
	websockets []protoreflect.ExtensionType
}

// Option configures Compile.
type Option func(*options)

type options struct {
	sources    map[string]string
	routes     []protoreflect.FullName
	websockets []protoreflect.FullName
}

// WithSources adds (or replaces) proto sources compiled alongside the
// embedded annotation files. Keys are import paths.
func WithSources(sources map[string]string) Option {
	return func(o *options) {
		for name, content := range sources {
			o.sources[name] = content
		}
	}
}

// WithRouteExtensions overrides the route extension names, highest priority first.
func WithRouteExtensions(names ...protoreflect.FullName) Option {
	return func(o *options) {
		o.routes = names
	}
}

// WithWebSocketExtensions overrides the WebSocket topic extension names.
func WithWebSocketExtensions(names ...protoreflect.FullName) Option {
	return func(o *options) {
		o.websockets = names
	}
}

// Sources returns the embedded annotation files keyed by import path.
func Sources() map[string]string {
	sources := make(map[string]string)
	_ = fs.WalkDir(embedded, "proto", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := embedded.ReadFile(path)
		if err != nil {
			return err
		}
		sources[path[len("proto/"):]] = string(data)
		return nil
	})
	return sources
}

var defaultSchema = sync.OnceValues(func() (*Schema, error) {
	return Compile(context.Background())
})

// Default returns the schema compiled from the embedded annotation files.
// It is compiled on first use.
func Default() (*Schema, error) {
	return defaultSchema()
}

// Compile compiles the annotation sources with protocompile and registers
// every MethodOptions extension they declare.
func Compile(ctx context.Context, opts ...Option) (*Schema, error) {
	o := &options{
		sources:    Sources(),
		routes:     DefaultRouteExtensions,
		websockets: DefaultWebSocketExtensions,
	}
	for _, opt := range opts {
		opt(o)
	}

	names := make([]string, 0, len(o.sources))
	for name := range o.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(o.sources),
		}),
	}
	files, err := compiler.Compile(ctx, names...)
	if err != nil {
		return nil, fmt.Errorf("compile annotation schema: %w", err)
	}

	types := new(protoregistry.Types)
	for _, file := range files {
		if err := registerExtensions(types, file.Extensions()); err != nil {
			return nil, err
		}
		msgs := file.Messages()
		for i := 0; i < msgs.Len(); i++ {
			if err := registerExtensions(types, msgs.Get(i).Extensions()); err != nil {
				return nil, err
			}
		}
	}

	s := &Schema{types: types}
	if s.routes, err = lookupExtensions(types, o.routes); err != nil {
		return nil, err
	}
	if s.websockets, err = lookupExtensions(types, o.websockets); err != nil {
		return nil, err
	}
	return s, nil
}

func registerExtensions(types *protoregistry.Types, exts protoreflect.ExtensionDescriptors) error {
	for i := 0; i < exts.Len(); i++ {
		xd := exts.Get(i)
		if xd.ContainingMessage().FullName() != methodOptionsName {
			continue
		}
		if err := types.RegisterExtension(dynamicpb.NewExtensionType(xd)); err != nil {
			return fmt.Errorf("register extension %s: %w", xd.FullName(), err)
		}
	}
	return nil
}

func lookupExtensions(types *protoregistry.Types, names []protoreflect.FullName) ([]protoreflect.ExtensionType, error) {
	out := make([]protoreflect.ExtensionType, 0, len(names))
	for _, name := range names {
		xt, err := types.FindExtensionByName(name)
		if err != nil {
			return nil, fmt.Errorf("extension %s is not declared by the annotation schema: %w", name, err)
		}
		if xt.TypeDescriptor().Kind() != protoreflect.MessageKind {
			return nil, fmt.Errorf("extension %s must be message-typed", name)
		}
		out = append(out, xt)
	}
	return out, nil
}

// Decode extracts the route and WebSocket topic declared on a method. Either
// result is nil when the method does not carry the extension.
func (s *Schema) Decode(opts *descriptorpb.MethodOptions) (*Route, *WebSocketTopic, error) {
	if opts == nil {
		return nil, nil, nil
	}

	raw, err := proto.Marshal(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal method options: %w", err)
	}
	decoded := &descriptorpb.MethodOptions{}
	if err := (proto.UnmarshalOptions{Resolver: s.types}).Unmarshal(raw, decoded); err != nil {
		return nil, nil, fmt.Errorf("unmarshal method options: %w", err)
	}

	var route *Route
	for _, xt := range s.routes {
		if m := extensionMessage(decoded, xt); m != nil {
			route = routeFromMessage(m)
			route.Extension = string(xt.TypeDescriptor().FullName())
			break
		}
	}

	var topic *WebSocketTopic
	for _, xt := range s.websockets {
		if m := extensionMessage(decoded, xt); m != nil {
			topic = topicFromMessage(m)
			break
		}
	}

	return route, topic, nil
}

func extensionMessage(opts *descriptorpb.MethodOptions, xt protoreflect.ExtensionType) protoreflect.Message {
	if !proto.HasExtension(opts, xt) {
		return nil
	}
	v, ok := proto.GetExtension(opts, xt).(proto.Message)
	if !ok {
		return nil
	}
	return v.ProtoReflect()
}

// ReadSourceDir reads every .proto file below dir, keyed by its path
// relative to dir (the import path used by other files).
func ReadSourceDir(dir string) (map[string]string, error) {
	sources := make(map[string]string)
	root := os.DirFS(dir)
	err := fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".proto" {
			return err
		}
		data, err := fs.ReadFile(root, path)
		if err != nil {
			return err
		}
		sources[path] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read annotation sources from %s: %w", dir, err)
	}
	return sources, nil
}
