package comments

import (
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"google.golang.org/protobuf/types/descriptorpb"
)

// state is the descriptor type a path element is interpreted against.
type state int

const (
	stateFile state = iota
	stateMessage
	stateEnum
	stateService
	// Terminal states: remaining elements address parts of the declaration
	// (name, number, options) and never extend the symbol.
	stateField
	stateOneof
	stateEnumValue
	stateMethod
)

func (s state) String() string {
	return [...]string{"file", "message", "enum", "service", "field", "oneof", "enum value", "method"}[s]
}

func (s state) terminal() bool {
	return s >= stateField
}

type action int

const (
	// actDescend consumes the next element as an index and appends the
	// indexed declaration's name.
	actDescend action = iota
	// actSkip leaves the symbol unchanged and continues in the same state.
	actSkip
	// actStop ends the walk: the path addresses something that is not a
	// declaration (options, extension ranges) and yields no symbol.
	actStop
)

type transition struct {
	action action
	next   state
	// child returns the names of the declarations selected by the tag.
	child func(node any) []named
}

type named interface {
	GetName() string
}

// Field numbers from google/protobuf/descriptor.proto.
const (
	fileMessageType    = 4
	fileEnumType       = 5
	fileService        = 6
	fileOptions        = 8
	fileSourceCodeInfo = 9

	messageName           = 1
	messageField          = 2
	messageNestedType     = 3
	messageEnumType       = 4
	messageExtensionRange = 5
	messageOneofDecl      = 8

	enumValue = 2

	serviceMethod = 2
)

// grammar is the closed set of path transitions. Tags missing from a state's
// row are decode errors.
var grammar = map[state]map[int32]transition{
	stateFile: {
		fileMessageType: {action: actDescend, next: stateMessage, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.FileDescriptorProto).GetMessageType())
		}},
		fileEnumType: {action: actDescend, next: stateEnum, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.FileDescriptorProto).GetEnumType())
		}},
		fileService: {action: actDescend, next: stateService, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.FileDescriptorProto).GetService())
		}},
		fileOptions:        {action: actStop},
		fileSourceCodeInfo: {action: actStop},
	},
	stateMessage: {
		messageName: {action: actSkip},
		messageField: {action: actDescend, next: stateField, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.DescriptorProto).GetField())
		}},
		messageNestedType: {action: actDescend, next: stateMessage, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.DescriptorProto).GetNestedType())
		}},
		messageEnumType: {action: actDescend, next: stateEnum, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.DescriptorProto).GetEnumType())
		}},
		messageExtensionRange: {action: actStop},
		messageOneofDecl: {action: actDescend, next: stateOneof, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.DescriptorProto).GetOneofDecl())
		}},
	},
	stateEnum: {
		enumValue: {action: actDescend, next: stateEnumValue, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.EnumDescriptorProto).GetValue())
		}},
	},
	stateService: {
		serviceMethod: {action: actDescend, next: stateMethod, child: func(n any) []named {
			return toNamed(n.(*descriptorpb.ServiceDescriptorProto).GetMethod())
		}},
	},
}

func toNamed[T named](items []T) []named {
	out := make([]named, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// UnexpectedPathTagError reports a source location path that falls outside
// the descriptor path grammar.
type UnexpectedPathTagError struct {
	File  string
	Path  []int32
	State string
	// Tag is the offending path element.
	Tag    int32
	Reason string
}

func (e *UnexpectedPathTagError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "unexpected tag"
	}
	return fmt.Sprintf("%s: path %v: %s %d in %s state", e.File, e.Path, reason, e.Tag, e.State)
}

// PathToSymbol decodes a source location path of file into the symbol of the
// declaration it addresses. ok is false when the path is valid but addresses
// no declaration: the file itself, its options or an extension range.
func PathToSymbol(file *descriptorpb.FileDescriptorProto, path []int32) (symbol string, ok bool, err error) {
	symbol = descriptor.PackagePrefix(file.GetPackage())
	cur := stateFile
	var node any = file

	fail := func(tag int32, reason string) error {
		return &UnexpectedPathTagError{
			File:   file.GetName(),
			Path:   append([]int32(nil), path...),
			State:  cur.String(),
			Tag:    tag,
			Reason: reason,
		}
	}

	for i := 0; i < len(path); i++ {
		if cur.terminal() {
			break
		}
		tag := path[i]
		t, found := grammar[cur][tag]
		if !found {
			return "", false, fail(tag, "")
		}

		switch t.action {
		case actStop:
			return "", false, nil
		case actSkip:
			continue
		case actDescend:
			if i+1 >= len(path) {
				return "", false, fail(tag, "missing index after tag")
			}
			i++
			children := t.child(node)
			idx := path[i]
			if idx < 0 || int(idx) >= len(children) {
				return "", false, fail(tag, fmt.Sprintf("index %d out of range after tag", idx))
			}
			node = children[idx]
			symbol = descriptor.Join(symbol, children[idx].GetName())
			cur = t.next
		}
	}
	if cur == stateFile {
		return "", false, nil
	}
	return symbol, true, nil
}
