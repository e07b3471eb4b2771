package docs

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/comments"
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/signature"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
	"github.com/platinummonkey/protodoc/pkg/typegraph"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Documentation represents generated documentation for one descriptor file
type Documentation struct {
	FileName    string
	PackageName string
	Syntax      string
	Messages    []*MessageDoc
	Enums       []*EnumDoc
	Services    []*ServiceDoc
	Imports     []string
	Options     map[string]string
}

// MessageDoc represents documentation for a message
type MessageDoc struct {
	Name        string
	FullName    string
	Description string
	Fields      []*FieldDoc
	NestedTypes []*MessageDoc
	Enums       []*EnumDoc
	Deprecated  bool
}

// FieldDoc represents documentation for a field
type FieldDoc struct {
	Name        string
	JSONName    string
	Number      int
	Type        string
	TypeName    string
	Label       string
	Description string
	Deprecated  bool
	Required    bool
	Optional    bool
	Repeated    bool
	OneofName   string
}

// EnumDoc represents documentation for an enum
type EnumDoc struct {
	Name        string
	FullName    string
	Description string
	Values      []*EnumValueDoc
	Deprecated  bool
}

// EnumValueDoc represents documentation for an enum value
type EnumValueDoc struct {
	Name        string
	Number      int
	Description string
	Deprecated  bool
}

// ServiceDoc represents documentation for a service
type ServiceDoc struct {
	Name        string
	FullName    string
	Description string
	Methods     []*MethodDoc
	Deprecated  bool
}

// MethodDoc represents documentation for a service method
type MethodDoc struct {
	Name            string
	FullName        string
	Description     string
	RequestType     string
	ResponseType    string
	ClientStreaming bool
	ServerStreaming bool
	Deprecated      bool
	HTTPMethod      string
	HTTPPath        string
	WebSocketTopic  string
}

// Generator generates documentation from an indexed descriptor set
type Generator struct {
	index      *descriptor.Index
	comments   comments.Table
	transcoder *transcoding.Resolver
	analyzer   *typegraph.Analyzer
	renderer   *signature.Renderer
}

// NewGenerator creates a new documentation generator. A nil exclusions slice
// selects typegraph.DefaultExclusions.
func NewGenerator(idx *descriptor.Index, table comments.Table, exclusions []string) *Generator {
	return &Generator{
		index:      idx,
		comments:   table,
		transcoder: transcoding.NewResolver(idx),
		analyzer:   typegraph.NewAnalyzer(idx, exclusions),
		renderer:   signature.NewRenderer(idx, table),
	}
}

// Generate generates documentation for every file of the descriptor set
func (g *Generator) Generate() ([]*Documentation, error) {
	docs := make([]*Documentation, 0, len(g.index.Files()))
	for _, file := range g.index.Files() {
		doc, err := g.GenerateFile(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GenerateFile generates documentation for a single descriptor file
func (g *Generator) GenerateFile(file *descriptorpb.FileDescriptorProto) (*Documentation, error) {
	doc := &Documentation{
		FileName:    file.GetName(),
		PackageName: file.GetPackage(),
		Syntax:      file.GetSyntax(),
		Messages:    make([]*MessageDoc, 0),
		Enums:       make([]*EnumDoc, 0),
		Services:    make([]*ServiceDoc, 0),
		Imports:     append([]string(nil), file.GetDependency()...),
		Options:     fileOptions(file.GetOptions()),
	}
	if doc.Syntax == "" {
		doc.Syntax = "proto2"
	}

	prefix := descriptor.PackagePrefix(file.GetPackage())

	for _, msg := range file.GetMessageType() {
		messageDoc, err := g.generateMessageDoc(msg, prefix)
		if err != nil {
			return nil, err
		}
		doc.Messages = append(doc.Messages, messageDoc)
	}

	for _, enum := range file.GetEnumType() {
		doc.Enums = append(doc.Enums, g.generateEnumDoc(enum, prefix))
	}

	for _, svc := range file.GetService() {
		serviceDoc, err := g.generateServiceDoc(svc, prefix)
		if err != nil {
			return nil, err
		}
		doc.Services = append(doc.Services, serviceDoc)
	}

	return doc, nil
}

func (g *Generator) generateMessageDoc(msg *descriptorpb.DescriptorProto, parent string) (*MessageDoc, error) {
	symbol := descriptor.Join(parent, msg.GetName())
	doc := &MessageDoc{
		Name:        msg.GetName(),
		FullName:    symbol,
		Description: g.comments[symbol],
		Fields:      make([]*FieldDoc, 0),
		NestedTypes: make([]*MessageDoc, 0),
		Enums:       make([]*EnumDoc, 0),
		Deprecated:  msg.GetOptions().GetDeprecated(),
	}

	for _, field := range msg.GetField() {
		fieldDoc, err := g.generateFieldDoc(msg, symbol, field)
		if err != nil {
			return nil, err
		}
		doc.Fields = append(doc.Fields, fieldDoc)
	}

	// Map entries are an encoding detail of map fields
	for _, nested := range msg.GetNestedType() {
		if descriptor.IsMapEntry(nested) {
			continue
		}
		nestedDoc, err := g.generateMessageDoc(nested, symbol)
		if err != nil {
			return nil, err
		}
		doc.NestedTypes = append(doc.NestedTypes, nestedDoc)
	}

	for _, enum := range msg.GetEnumType() {
		doc.Enums = append(doc.Enums, g.generateEnumDoc(enum, symbol))
	}

	return doc, nil
}

func (g *Generator) generateFieldDoc(msg *descriptorpb.DescriptorProto, owner string, field *descriptorpb.FieldDescriptorProto) (*FieldDoc, error) {
	typ, err := g.renderer.FieldType(owner, field)
	if err != nil {
		return nil, err
	}
	doc := &FieldDoc{
		Name:        field.GetName(),
		JSONName:    descriptor.JSONName(field),
		Number:      int(field.GetNumber()),
		Type:        typ,
		TypeName:    field.GetTypeName(),
		Description: g.comments[descriptor.Join(owner, field.GetName())],
		Deprecated:  field.GetOptions().GetDeprecated(),
	}

	switch {
	case field.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		doc.Label = "repeated"
		doc.Repeated = true
	case field.GetProto3Optional():
		doc.Label = "optional"
		doc.Optional = true
	case field.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		doc.Label = "required"
		doc.Required = true
	}

	// Synthetic oneofs of proto3 optional fields are not user-visible
	if field.OneofIndex != nil && !field.GetProto3Optional() {
		if idx := int(field.GetOneofIndex()); idx < len(msg.GetOneofDecl()) {
			doc.OneofName = msg.GetOneofDecl()[idx].GetName()
		}
	}

	return doc, nil
}

func (g *Generator) generateEnumDoc(enum *descriptorpb.EnumDescriptorProto, parent string) *EnumDoc {
	symbol := descriptor.Join(parent, enum.GetName())
	doc := &EnumDoc{
		Name:        enum.GetName(),
		FullName:    symbol,
		Description: g.comments[symbol],
		Values:      make([]*EnumValueDoc, 0),
		Deprecated:  enum.GetOptions().GetDeprecated(),
	}

	for _, value := range enum.GetValue() {
		doc.Values = append(doc.Values, &EnumValueDoc{
			Name:        value.GetName(),
			Number:      int(value.GetNumber()),
			Description: g.comments[descriptor.Join(symbol, value.GetName())],
			Deprecated:  value.GetOptions().GetDeprecated(),
		})
	}

	return doc
}

func (g *Generator) generateServiceDoc(svc *descriptorpb.ServiceDescriptorProto, parent string) (*ServiceDoc, error) {
	symbol := descriptor.Join(parent, svc.GetName())
	doc := &ServiceDoc{
		Name:        svc.GetName(),
		FullName:    symbol,
		Description: g.comments[symbol],
		Methods:     make([]*MethodDoc, 0),
		Deprecated:  svc.GetOptions().GetDeprecated(),
	}

	for _, method := range svc.GetMethod() {
		methodDoc, err := g.methodDoc(descriptor.Join(symbol, method.GetName()))
		if err != nil {
			return nil, err
		}
		doc.Methods = append(doc.Methods, methodDoc)
	}

	return doc, nil
}

func (g *Generator) methodDoc(symbol string) (*MethodDoc, error) {
	entry, err := g.index.Method(symbol)
	if err != nil {
		return nil, err
	}
	method := entry.Method
	doc := &MethodDoc{
		Name:            method.GetName(),
		FullName:        symbol,
		Description:     g.comments[symbol],
		RequestType:     method.GetInputType(),
		ResponseType:    method.GetOutputType(),
		ClientStreaming: method.GetClientStreaming(),
		ServerStreaming: method.GetServerStreaming(),
		Deprecated:      method.GetOptions().GetDeprecated(),
	}

	if verb, path, ok := transcoding.RouteVerbAndPath(entry.Route); ok {
		doc.HTTPMethod = verb
		doc.HTTPPath = path
		doc.Deprecated = doc.Deprecated || entry.Route.Deprecated
	}
	if entry.WebSocket != nil {
		doc.WebSocketTopic = entry.WebSocket.Topic
	}

	return doc, nil
}

func fileOptions(opts *descriptorpb.FileOptions) map[string]string {
	out := make(map[string]string)
	if opts == nil {
		return out
	}
	if opts.GoPackage != nil {
		out["go_package"] = opts.GetGoPackage()
	}
	if opts.JavaPackage != nil {
		out["java_package"] = opts.GetJavaPackage()
	}
	if opts.JavaMultipleFiles != nil {
		out["java_multiple_files"] = fmt.Sprint(opts.GetJavaMultipleFiles())
	}
	return out
}

// Summary returns a summary of the documentation
func (d *Documentation) Summary() string {
	return fmt.Sprintf("Package: %s, Messages: %d, Enums: %d, Services: %d",
		d.PackageName, len(d.Messages), len(d.Enums), len(d.Services))
}

// FindMessage finds a message by name
func (d *Documentation) FindMessage(name string) *MessageDoc {
	for _, msg := range d.Messages {
		if msg.Name == name || msg.FullName == name {
			return msg
		}
		// Check nested messages
		if nested := findNestedMessage(msg, name); nested != nil {
			return nested
		}
	}
	return nil
}

// findNestedMessage recursively finds a nested message
func findNestedMessage(msg *MessageDoc, name string) *MessageDoc {
	for _, nested := range msg.NestedTypes {
		if nested.Name == name || nested.FullName == name {
			return nested
		}
		if found := findNestedMessage(nested, name); found != nil {
			return found
		}
	}
	return nil
}

// FindEnum finds an enum by name
func (d *Documentation) FindEnum(name string) *EnumDoc {
	for _, enum := range d.Enums {
		if enum.Name == name || enum.FullName == name {
			return enum
		}
	}
	// Check nested enums
	for _, msg := range d.Messages {
		if enum := findNestedEnum(msg, name); enum != nil {
			return enum
		}
	}
	return nil
}

// findNestedEnum recursively finds a nested enum
func findNestedEnum(msg *MessageDoc, name string) *EnumDoc {
	for _, enum := range msg.Enums {
		if enum.Name == name || enum.FullName == name {
			return enum
		}
	}
	for _, nested := range msg.NestedTypes {
		if enum := findNestedEnum(nested, name); enum != nil {
			return enum
		}
	}
	return nil
}

// FindService finds a service by name
func (d *Documentation) FindService(name string) *ServiceDoc {
	for _, svc := range d.Services {
		if svc.Name == name || svc.FullName == name {
			return svc
		}
	}
	return nil
}

// ErrUnknownFile is returned for file names not in the descriptor set
var ErrUnknownFile = errors.New("unknown descriptor file")

// GenerateFileByName generates documentation for the descriptor file with
// the given name
func (g *Generator) GenerateFileByName(name string) (*Documentation, error) {
	for _, file := range g.index.Files() {
		if file.GetName() == name {
			return g.GenerateFile(file)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFile, name)
}

// Services returns the documentation of every service, in file order
func (g *Generator) Services() ([]*ServiceDoc, error) {
	var services []*ServiceDoc
	for _, file := range g.index.Files() {
		prefix := descriptor.PackagePrefix(file.GetPackage())
		for _, svc := range file.GetService() {
			doc, err := g.generateServiceDoc(svc, prefix)
			if err != nil {
				return nil, err
			}
			services = append(services, doc)
		}
	}
	return services, nil
}
