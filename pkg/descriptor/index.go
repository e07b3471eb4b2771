package descriptor

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Index maps fully-qualified symbols to their declarations. An Index is
// fully built by Build and never modified afterwards, so it may be shared
// between goroutines without locking.
type Index struct {
	set      *descriptorpb.FileDescriptorSet
	entries  map[string]*Entry
	packages map[string]string
	order    []string
}

// Option configures Build.
type Option func(*builder)

// WithAnnotations sets the schema used to decode method options.
func WithAnnotations(schema *annotations.Schema) Option {
	return func(b *builder) {
		b.schema = schema
	}
}

// WithLogger sets the logger used while indexing.
func WithLogger(log *logrus.Logger) Option {
	return func(b *builder) {
		if log != nil {
			b.log = log
		}
	}
}

type builder struct {
	idx    *Index
	schema *annotations.Schema
	log    *logrus.Logger
}

// Build parses a serialized FileDescriptorSet and indexes every declaration
// in schema order.
func Build(data []byte, opts ...Option) (*Index, error) {
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, set); err != nil {
		return nil, &DecodeError{Size: len(data), Err: err}
	}
	return FromSet(set, opts...)
}

// FromSet indexes an already decoded descriptor set. The set must not be
// modified after the call.
func FromSet(set *descriptorpb.FileDescriptorSet, opts ...Option) (*Index, error) {
	b := &builder{
		idx: &Index{
			set:      set,
			entries:  make(map[string]*Entry),
			packages: make(map[string]string),
		},
		log: logrus.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.schema == nil {
		schema, err := annotations.Default()
		if err != nil {
			return nil, err
		}
		b.schema = schema
	}

	for _, file := range set.GetFile() {
		if err := b.indexFile(file); err != nil {
			return nil, &DecodeError{Size: proto.Size(set), Err: err}
		}
	}

	b.log.WithField("symbols", len(b.idx.order)).Debug("Descriptor index built")
	return b.idx, nil
}

func (b *builder) indexFile(file *descriptorpb.FileDescriptorProto) error {
	pkg := file.GetPackage()
	prefix := PackagePrefix(pkg)

	for _, svc := range file.GetService() {
		symbol := Join(prefix, svc.GetName())
		if err := b.add(&Entry{Kind: KindService, Symbol: symbol, Package: pkg, File: file, Service: svc}); err != nil {
			return err
		}
		for _, method := range svc.GetMethod() {
			route, topic, err := b.schema.Decode(method.GetOptions())
			if err != nil {
				return fmt.Errorf("method %s: %w", Join(symbol, method.GetName()), err)
			}
			entry := &Entry{
				Kind:      KindMethod,
				Symbol:    Join(symbol, method.GetName()),
				Package:   pkg,
				File:      file,
				Method:    method,
				Route:     route,
				WebSocket: topic,
			}
			if err := b.add(entry); err != nil {
				return err
			}
		}
	}

	for _, msg := range file.GetMessageType() {
		if err := b.indexMessage(file, prefix, msg); err != nil {
			return err
		}
	}

	for _, enum := range file.GetEnumType() {
		if err := b.indexEnum(file, prefix, enum); err != nil {
			return err
		}
	}

	b.log.WithFields(logrus.Fields{
		"file":    file.GetName(),
		"package": pkg,
	}).Debug("Indexed descriptor file")
	return nil
}

func (b *builder) indexMessage(file *descriptorpb.FileDescriptorProto, parent string, msg *descriptorpb.DescriptorProto) error {
	pkg := file.GetPackage()
	symbol := Join(parent, msg.GetName())
	if err := b.add(&Entry{Kind: KindMessage, Symbol: symbol, Package: pkg, File: file, Message: msg}); err != nil {
		return err
	}
	for _, field := range msg.GetField() {
		if err := b.add(&Entry{Kind: KindField, Symbol: Join(symbol, field.GetName()), Package: pkg, File: file, Field: field}); err != nil {
			return err
		}
	}
	for _, oneof := range msg.GetOneofDecl() {
		if err := b.add(&Entry{Kind: KindOneof, Symbol: Join(symbol, oneof.GetName()), Package: pkg, File: file, Oneof: oneof}); err != nil {
			return err
		}
	}
	for _, nested := range msg.GetNestedType() {
		if err := b.indexMessage(file, symbol, nested); err != nil {
			return err
		}
	}
	for _, enum := range msg.GetEnumType() {
		if err := b.indexEnum(file, symbol, enum); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) indexEnum(file *descriptorpb.FileDescriptorProto, parent string, enum *descriptorpb.EnumDescriptorProto) error {
	pkg := file.GetPackage()
	symbol := Join(parent, enum.GetName())
	if err := b.add(&Entry{Kind: KindEnum, Symbol: symbol, Package: pkg, File: file, Enum: enum}); err != nil {
		return err
	}
	for _, value := range enum.GetValue() {
		if err := b.add(&Entry{Kind: KindEnumValue, Symbol: Join(symbol, value.GetName()), Package: pkg, File: file, EnumValue: value}); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) add(e *Entry) error {
	if _, exists := b.idx.entries[e.Symbol]; exists {
		return fmt.Errorf("duplicate symbol %s in %s", e.Symbol, e.File.GetName())
	}
	b.idx.entries[e.Symbol] = e
	b.idx.packages[e.Symbol] = e.Package
	b.idx.order = append(b.idx.order, e.Symbol)
	return nil
}

// Set returns the underlying descriptor set. Callers must treat it as read-only.
func (x *Index) Set() *descriptorpb.FileDescriptorSet {
	return x.set
}

// Files returns the indexed files in descriptor set order.
func (x *Index) Files() []*descriptorpb.FileDescriptorProto {
	return x.set.GetFile()
}

// Len returns the number of indexed symbols.
func (x *Index) Len() int {
	return len(x.order)
}

// Symbols returns every indexed symbol in declaration order.
func (x *Index) Symbols() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Has reports whether symbol is declared.
func (x *Index) Has(symbol string) bool {
	_, ok := x.entries[symbol]
	return ok
}

// Resolve returns the declaration of symbol.
func (x *Index) Resolve(symbol string) (*Entry, error) {
	e, ok := x.entries[symbol]
	if !ok {
		return nil, &UnknownSymbolError{Symbol: symbol}
	}
	return e, nil
}

// Package returns the package declaring symbol.
func (x *Index) Package(symbol string) (string, bool) {
	pkg, ok := x.packages[symbol]
	return pkg, ok
}

func (x *Index) resolveKind(symbol string, kind Kind) (*Entry, error) {
	e, err := x.Resolve(symbol)
	if err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, &KindMismatchError{Symbol: symbol, Want: kind, Got: e.Kind}
	}
	return e, nil
}

// Message returns the message declared as symbol.
func (x *Index) Message(symbol string) (*descriptorpb.DescriptorProto, error) {
	e, err := x.resolveKind(symbol, KindMessage)
	if err != nil {
		return nil, err
	}
	return e.Message, nil
}

// Enum returns the enum declared as symbol.
func (x *Index) Enum(symbol string) (*descriptorpb.EnumDescriptorProto, error) {
	e, err := x.resolveKind(symbol, KindEnum)
	if err != nil {
		return nil, err
	}
	return e.Enum, nil
}

// Service returns the service declared as symbol.
func (x *Index) Service(symbol string) (*descriptorpb.ServiceDescriptorProto, error) {
	e, err := x.resolveKind(symbol, KindService)
	if err != nil {
		return nil, err
	}
	return e.Service, nil
}

// Method returns the entry of the method declared as symbol, including its
// decoded route and WebSocket bindings.
func (x *Index) Method(symbol string) (*Entry, error) {
	return x.resolveKind(symbol, KindMethod)
}

// Field returns the field declared as symbol.
func (x *Index) Field(symbol string) (*descriptorpb.FieldDescriptorProto, error) {
	e, err := x.resolveKind(symbol, KindField)
	if err != nil {
		return nil, err
	}
	return e.Field, nil
}

// FieldType returns the message or enum a field refers to. referrer names the
// field in errors.
func (x *Index) FieldType(referrer string, field *descriptorpb.FieldDescriptorProto) (*Entry, error) {
	e, ok := x.entries[field.GetTypeName()]
	if !ok {
		return nil, &UnknownSymbolError{Symbol: field.GetTypeName(), Referrer: referrer}
	}
	return e, nil
}

// Validate checks that every type reference in the set resolves and that
// every map entry has a key and a value field.
func (x *Index) Validate() error {
	var errs []error
	for _, symbol := range x.order {
		e := x.entries[symbol]
		switch e.Kind {
		case KindField:
			switch e.Field.GetType() {
			case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_ENUM:
				if _, err := x.FieldType(symbol, e.Field); err != nil {
					errs = append(errs, err)
				}
			}
		case KindMethod:
			for _, typeName := range []string{e.Method.GetInputType(), e.Method.GetOutputType()} {
				if !x.Has(typeName) {
					errs = append(errs, &UnknownSymbolError{Symbol: typeName, Referrer: symbol})
				}
			}
		case KindMessage:
			if IsMapEntry(e.Message) && len(e.Message.GetField()) != 2 {
				errs = append(errs, fmt.Errorf("map entry %s has %d fields, want 2", symbol, len(e.Message.GetField())))
			}
		}
	}
	return errors.Join(errs...)
}
