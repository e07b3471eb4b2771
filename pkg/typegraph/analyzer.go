package typegraph

import (
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
	"google.golang.org/protobuf/types/descriptorpb"
)

// DefaultExclusions are infrastructure types that are never reported as
// related types, nor walked into.
var DefaultExclusions = []string{
	".google.protobuf.Duration",
	".google.protobuf.Struct",
	".google.protobuf.Timestamp",
	".yamcs.api.HttpBody",
	".google.api.HttpBody",
}

// Analyzer computes the message and enum types reachable from a method.
type Analyzer struct {
	index      *descriptor.Index
	transcoder *transcoding.Resolver
	exclusions []string
}

// NewAnalyzer creates an analyzer. A nil exclusions slice selects
// DefaultExclusions.
func NewAnalyzer(idx *descriptor.Index, exclusions []string) *Analyzer {
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	return &Analyzer{
		index:      idx,
		transcoder: transcoding.NewResolver(idx),
		exclusions: exclusions,
	}
}

// RelatedTypes returns the messages reachable from the request body and
// response of a method, in order of discovery.
func (a *Analyzer) RelatedTypes(methodSymbol string) ([]string, error) {
	roots, err := a.roots(methodSymbol)
	if err != nil {
		return nil, err
	}
	return a.TypesFrom(roots...)
}

// RelatedEnums returns the enums used by the request body, the response and
// every message reachable from them, in order of discovery.
func (a *Analyzer) RelatedEnums(methodSymbol string) ([]string, error) {
	roots, err := a.roots(methodSymbol)
	if err != nil {
		return nil, err
	}
	return a.EnumsFrom(roots...)
}

// HasRelated reports whether a method has any related type or enum.
func (a *Analyzer) HasRelated(methodSymbol string) (bool, error) {
	types, err := a.RelatedTypes(methodSymbol)
	if err != nil {
		return false, err
	}
	if len(types) > 0 {
		return true, nil
	}
	enums, err := a.RelatedEnums(methodSymbol)
	if err != nil {
		return false, err
	}
	return len(enums) > 0, nil
}

func (a *Analyzer) roots(methodSymbol string) ([]string, error) {
	entry, err := a.index.Method(methodSymbol)
	if err != nil {
		return nil, err
	}
	body, err := a.transcoder.BodySymbol(entry)
	if err != nil {
		return nil, err
	}
	return []string{body, entry.Method.GetOutputType()}, nil
}

// walk is the state of one traversal. visited holds exclusions, roots and
// every message entered so far; it is never shared between traversals.
type walk struct {
	a       *Analyzer
	visited map[string]bool
	types   orderedSet
	enums   orderedSet
}

func (a *Analyzer) newWalk(roots []string) *walk {
	w := &walk{a: a, visited: make(map[string]bool)}
	for _, s := range a.exclusions {
		w.visited[s] = true
	}
	for _, s := range roots {
		w.visited[s] = true
	}
	return w
}

// TypesFrom returns the messages reachable from roots. Roots themselves are
// not reported.
func (a *Analyzer) TypesFrom(roots ...string) ([]string, error) {
	w := a.newWalk(roots)
	if err := w.run(roots); err != nil {
		return nil, err
	}
	return w.types.items, nil
}

// EnumsFrom returns the enums used by roots and the messages reachable from
// them.
func (a *Analyzer) EnumsFrom(roots ...string) ([]string, error) {
	w := a.newWalk(roots)
	if err := w.run(roots); err != nil {
		return nil, err
	}
	return w.enums.items, nil
}

func (w *walk) run(roots []string) error {
	for _, root := range roots {
		if w.a.excluded(root) {
			continue
		}
		if err := w.visit(root); err != nil {
			return err
		}
	}
	return nil
}

// visit walks the fields of a message. Messages are marked visited before
// recursion, so cycles end at the first repeated message.
func (w *walk) visit(symbol string) error {
	msg, err := w.a.index.Message(symbol)
	if err != nil {
		return err
	}
	for _, field := range msg.GetField() {
		if err := w.visitField(symbol, field); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) visitField(owner string, field *descriptorpb.FieldDescriptorProto) error {
	referrer := descriptor.Join(owner, field.GetName())
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		w.enums.add(field.GetTypeName())
		return nil
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
	default:
		return nil
	}

	typeName := field.GetTypeName()
	if w.visited[typeName] {
		return nil
	}
	target, err := w.a.index.FieldType(referrer, field)
	if err != nil {
		return err
	}
	if target.Kind != descriptor.KindMessage {
		return &descriptor.KindMismatchError{Symbol: typeName, Want: descriptor.KindMessage, Got: target.Kind}
	}

	if descriptor.IsMapEntry(target.Message) {
		// Only the value of a map entry can contribute a type.
		values := target.Message.GetField()
		if len(values) < 2 {
			return nil
		}
		return w.visitField(typeName, values[1])
	}

	w.visited[typeName] = true
	w.types.add(typeName)
	return w.visit(typeName)
}

func (a *Analyzer) excluded(symbol string) bool {
	for _, s := range a.exclusions {
		if s == symbol {
			return true
		}
	}
	return false
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(item string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[item] {
		return
	}
	s.seen[item] = true
	s.items = append(s.items, item)
}
