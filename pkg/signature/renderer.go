package signature

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/comments"
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Well-known message types with a dedicated JSON representation.
const (
	DurationType  = ".google.protobuf.Duration"
	TimestampType = ".google.protobuf.Timestamp"
	StructType    = ".google.protobuf.Struct"
)

const (
	memberIndent  = "  "
	commentPrefix = "//"

	noteBase64    = "  // Base64"
	noteDecimal   = "  // String decimal"
	noteTimestamp = "  // RFC 3339 timestamp"
	noteDuration  = ` // Duration in seconds. Example: "3s" or "3.001s"`
)

// UnsupportedFieldTypeError reports a field whose wire type has no textual
// representation.
type UnsupportedFieldTypeError struct {
	Field string
	Type  descriptorpb.FieldDescriptorProto_Type
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("field %s: unsupported type %s", e.Field, e.Type)
}

// Renderer writes interface-like declarations of messages and enums.
type Renderer struct {
	index    *descriptor.Index
	comments comments.Table
}

// NewRenderer creates a renderer. table may be nil when the descriptor set
// carries no source info.
func NewRenderer(idx *descriptor.Index, table comments.Table) *Renderer {
	return &Renderer{index: idx, comments: table}
}

// RenderMessage renders the message declared as symbol. Fields whose JSON
// name is listed in excluded are left out.
func (r *Renderer) RenderMessage(symbol string, excluded ...string) (string, error) {
	msg, err := r.index.Message(symbol)
	if err != nil {
		return "", err
	}

	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	var b strings.Builder
	r.writeComment(&b, symbol, "")
	fmt.Fprintf(&b, "interface %s {\n", msg.GetName())
	for _, field := range msg.GetField() {
		jsonName := descriptor.JSONName(field)
		if skip[jsonName] {
			continue
		}
		fieldSymbol := descriptor.Join(symbol, field.GetName())
		if r.hasComment(fieldSymbol) {
			b.WriteByte('\n')
			r.writeComment(&b, fieldSymbol, memberIndent)
		}

		typ, err := r.fieldType(fieldSymbol, field)
		if err != nil {
			return "", err
		}
		mapField, err := r.isMapField(fieldSymbol, field)
		if err != nil {
			return "", err
		}
		if field.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED && !mapField {
			typ += "[]"
		}
		fmt.Fprintf(&b, "%s%s: %s;%s\n", memberIndent, jsonName, typ, note(field))
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// RenderEnum renders the enum declared as symbol as a string-valued enum.
func (r *Renderer) RenderEnum(symbol string) (string, error) {
	enum, err := r.index.Enum(symbol)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	r.writeComment(&b, symbol, "")
	fmt.Fprintf(&b, "enum %s {\n", enum.GetName())
	for _, value := range enum.GetValue() {
		valueSymbol := descriptor.Join(symbol, value.GetName())
		if r.hasComment(valueSymbol) {
			b.WriteByte('\n')
			r.writeComment(&b, valueSymbol, memberIndent)
		}
		fmt.Fprintf(&b, "%s%s = %q,\n", memberIndent, value.GetName(), value.GetName())
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// FieldType returns the textual type of a field of the message declared as
// owner, without the array marker.
func (r *Renderer) FieldType(owner string, field *descriptorpb.FieldDescriptorProto) (string, error) {
	return r.fieldType(descriptor.Join(owner, field.GetName()), field)
}

func (r *Renderer) fieldType(symbol string, field *descriptorpb.FieldDescriptorProto) (string, error) {
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return "boolean", nil
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES,
		descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return "string", nil
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
		descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
		descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return "number", nil
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return "string", nil
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return descriptor.ShortName(field.GetTypeName()), nil
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		return r.messageFieldType(symbol, field)
	default:
		return "", &UnsupportedFieldTypeError{Field: symbol, Type: field.GetType()}
	}
}

func (r *Renderer) messageFieldType(symbol string, field *descriptorpb.FieldDescriptorProto) (string, error) {
	switch field.GetTypeName() {
	case DurationType, TimestampType:
		return "string", nil
	case StructType:
		return "{[key: string]: any}", nil
	}

	target, err := r.index.FieldType(symbol, field)
	if err != nil {
		return "", err
	}
	if target.Kind == descriptor.KindMessage && descriptor.IsMapEntry(target.Message) {
		entry := target.Message.GetField()
		if len(entry) != 2 {
			return "", fmt.Errorf("map entry %s has %d fields, want 2", target.Symbol, len(entry))
		}
		key, err := r.fieldType(descriptor.Join(target.Symbol, entry[0].GetName()), entry[0])
		if err != nil {
			return "", err
		}
		value, err := r.fieldType(descriptor.Join(target.Symbol, entry[1].GetName()), entry[1])
		if err != nil {
			return "", err
		}
		return "{[key: " + key + "]: " + value + "}", nil
	}
	return descriptor.ShortName(field.GetTypeName()), nil
}

func (r *Renderer) isMapField(symbol string, field *descriptorpb.FieldDescriptorProto) (bool, error) {
	if field.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return false, nil
	}
	switch field.GetTypeName() {
	case DurationType, TimestampType, StructType:
		return false, nil
	}
	target, err := r.index.FieldType(symbol, field)
	if err != nil {
		return false, err
	}
	return target.Kind == descriptor.KindMessage && descriptor.IsMapEntry(target.Message), nil
}

func note(field *descriptorpb.FieldDescriptorProto) string {
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return noteBase64
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return noteDecimal
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		switch field.GetTypeName() {
		case TimestampType:
			return noteTimestamp
		case DurationType:
			return noteDuration
		}
	}
	return ""
}

func (r *Renderer) hasComment(symbol string) bool {
	_, ok := r.comments.Lookup(symbol)
	return ok
}

func (r *Renderer) writeComment(b *strings.Builder, symbol, indent string) {
	if text, ok := r.comments.Formatted(symbol, indent, commentPrefix); ok {
		b.WriteString(text)
	}
}
