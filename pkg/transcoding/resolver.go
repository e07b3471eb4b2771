package transcoding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/platinummonkey/protodoc/pkg/descriptor"
)

// WildcardBody maps the whole input message to the HTTP body.
const WildcardBody = "*"

// UnknownBodyFieldError reports a route body selector that names no field of
// the method's input message.
type UnknownBodyFieldError struct {
	Method    string
	InputType string
	Body      string
}

func (e *UnknownBodyFieldError) Error() string {
	return fmt.Sprintf("method %s: body %q names no field of %s", e.Method, e.Body, e.InputType)
}

// Resolver answers HTTP transcoding questions about indexed methods.
type Resolver struct {
	index *descriptor.Index
}

// NewResolver creates a resolver over idx.
func NewResolver(idx *descriptor.Index) *Resolver {
	return &Resolver{index: idx}
}

// EffectiveBodySymbol returns the type of the HTTP request body of a method.
// When the route promotes a single input field to the body, that field's
// type is returned; otherwise the method's input type.
func (r *Resolver) EffectiveBodySymbol(methodSymbol string) (string, error) {
	entry, err := r.index.Method(methodSymbol)
	if err != nil {
		return "", err
	}
	return r.BodySymbol(entry)
}

// BodySymbol is EffectiveBodySymbol for an already resolved method entry. A
// body field that is not a message leaves the input type as the body.
func (r *Resolver) BodySymbol(entry *descriptor.Entry) (string, error) {
	input := entry.Method.GetInputType()
	route := entry.Route
	if route == nil || !route.HasBody || route.Body == WildcardBody {
		return input, nil
	}

	msg, err := r.index.Message(input)
	if err != nil {
		return "", err
	}
	for _, field := range msg.GetField() {
		if descriptor.JSONName(field) != route.Body {
			continue
		}
		if field.GetTypeName() == "" {
			return input, nil
		}
		target, err := r.index.FieldType(descriptor.Join(input, field.GetName()), field)
		if err != nil {
			return "", err
		}
		if target.Kind != descriptor.KindMessage {
			return input, nil
		}
		return target.Symbol, nil
	}
	return "", &UnknownBodyFieldError{Method: entry.Symbol, InputType: input, Body: route.Body}
}

// Verbs in the order they are checked when reading a route.
var verbs = []string{"POST", "GET", "DELETE", "PUT", "PATCH"}

// RouteVerbAndPath returns the HTTP verb and URI template of a route. A route
// without any verb set yields ok=false.
func RouteVerbAndPath(route *annotations.Route) (verb, path string, ok bool) {
	if route == nil {
		return "", "", false
	}
	paths := []string{route.Post, route.Get, route.Delete, route.Put, route.Patch}
	for i, p := range paths {
		if p != "" {
			return verbs[i], p, true
		}
	}
	return "", "", false
}

// MethodRoute returns the verb and URI template of an indexed method.
func (r *Resolver) MethodRoute(methodSymbol string) (verb, path string, ok bool, err error) {
	entry, err := r.index.Method(methodSymbol)
	if err != nil {
		return "", "", false, err
	}
	verb, path, ok = RouteVerbAndPath(entry.Route)
	return verb, path, ok, nil
}

var placeholder = regexp.MustCompile(`\{([^}*?]*)[*?]*\}`)

// RouteParameters returns the placeholder names of a URI template in order
// of appearance, with any "*" or "?" modifier removed. Repeated names are
// kept.
func RouteParameters(uriTemplate string) []string {
	matches := placeholder.FindAllStringSubmatch(uriTemplate, -1)
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, m[1])
	}
	return params
}

// RouteParameterTemplate returns the placeholder of param as written in the
// template, modifiers included.
func RouteParameterTemplate(uriTemplate, param string) (string, bool) {
	re := regexp.MustCompile(`\{` + regexp.QuoteMeta(param) + `[*?]*\}`)
	m := re.FindString(uriTemplate)
	return m, m != ""
}

// RequestExcludedFields returns the input fields that transcoding reads from
// the URI. They are left out when the request body is rendered.
func (r *Resolver) RequestExcludedFields(methodSymbol string) ([]string, error) {
	_, path, ok, err := r.MethodRoute(methodSymbol)
	if err != nil || !ok {
		return nil, err
	}
	return RouteParameters(path), nil
}

// QueryParameters returns the JSON names of the input fields a GET route
// reads from the query string: every field that is not a route parameter.
func (r *Resolver) QueryParameters(methodSymbol string) ([]string, error) {
	entry, err := r.index.Method(methodSymbol)
	if err != nil {
		return nil, err
	}
	if entry.Route == nil || entry.Route.Get == "" {
		return nil, nil
	}
	msg, err := r.index.Message(entry.Method.GetInputType())
	if err != nil {
		return nil, err
	}

	inPath := make(map[string]bool)
	for _, p := range RouteParameters(entry.Route.Get) {
		inPath[p] = true
	}
	var out []string
	for _, field := range msg.GetField() {
		if !inPath[descriptor.JSONName(field)] {
			out = append(out, descriptor.JSONName(field))
		}
	}
	return out, nil
}

// FormatRoute renders a route as "VERB /path".
func FormatRoute(route *annotations.Route) string {
	verb, path, ok := RouteVerbAndPath(route)
	if !ok {
		return ""
	}
	return strings.Join([]string{verb, path}, " ")
}
