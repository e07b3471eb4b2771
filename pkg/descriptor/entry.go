package descriptor

import (
	"github.com/platinummonkey/protodoc/pkg/annotations"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Kind identifies the declaration an Entry describes.
type Kind int

const (
	KindMessage Kind = iota + 1
	KindField
	KindOneof
	KindEnum
	KindEnumValue
	KindService
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindField:
		return "field"
	case KindOneof:
		return "oneof"
	case KindEnum:
		return "enum"
	case KindEnumValue:
		return "enum value"
	case KindService:
		return "service"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Entry is one indexed declaration. Exactly one of the descriptor pointers is
// set, matching Kind.
type Entry struct {
	Kind    Kind
	Symbol  string
	Package string
	File    *descriptorpb.FileDescriptorProto

	Message   *descriptorpb.DescriptorProto
	Field     *descriptorpb.FieldDescriptorProto
	Oneof     *descriptorpb.OneofDescriptorProto
	Enum      *descriptorpb.EnumDescriptorProto
	EnumValue *descriptorpb.EnumValueDescriptorProto
	Service   *descriptorpb.ServiceDescriptorProto
	Method    *descriptorpb.MethodDescriptorProto

	// Route and WebSocket are decoded from method options.
	Route     *annotations.Route
	WebSocket *annotations.WebSocketTopic
}

// Name returns the unqualified declaration name.
func (e *Entry) Name() string {
	return ShortName(e.Symbol)
}

// PackagePrefix returns the symbol prefix for declarations of a package.
func PackagePrefix(pkg string) string {
	if pkg == "" {
		return ""
	}
	return "." + pkg
}

// Join appends a declaration name to a parent symbol.
func Join(parent, name string) string {
	return parent + "." + name
}

// ShortName returns the last component of a symbol.
func ShortName(symbol string) string {
	for i := len(symbol) - 1; i >= 0; i-- {
		if symbol[i] == '.' {
			return symbol[i+1:]
		}
	}
	return symbol
}

// IsMapEntry reports whether a message is a compiler-generated map entry.
func IsMapEntry(msg *descriptorpb.DescriptorProto) bool {
	return msg.GetOptions().GetMapEntry()
}

// JSONName returns the JSON name of a field. Descriptor sets written by protoc
// always carry it; for other producers it is derived from the field name the
// same way protoc does.
func JSONName(field *descriptorpb.FieldDescriptorProto) string {
	if field.JsonName != nil {
		return field.GetJsonName()
	}
	name := field.GetName()
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_':
			upper = true
		case upper && 'a' <= c && c <= 'z':
			out = append(out, c-'a'+'A')
			upper = false
		default:
			out = append(out, c)
			upper = false
		}
	}
	return string(out)
}
