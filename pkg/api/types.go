package api

import (
	"time"

	"github.com/platinummonkey/protodoc/pkg/docs"
)

// HealthResponse reports which snapshot is being served
type HealthResponse struct {
	Status     string    `json:"status"`
	Source     string    `json:"source"`
	Generation uint64    `json:"generation,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Symbols    int       `json:"symbols,omitempty"`
}

// SymbolSummary is one entry of a symbol listing
type SymbolSummary struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
}

// SymbolListResponse lists symbols in declaration order
type SymbolListResponse struct {
	Generation uint64          `json:"generation"`
	Symbols    []SymbolSummary `json:"symbols"`
}

// SymbolResponse describes one declaration
type SymbolResponse struct {
	Symbol  string `json:"symbol"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Package string `json:"package"`
	File    string `json:"file"`
	Comment string `json:"comment,omitempty"`
}

// CommentResponse holds the leading comment of a declaration
type CommentResponse struct {
	Symbol  string `json:"symbol"`
	Found   bool   `json:"found"`
	Comment string `json:"comment,omitempty"`
}

// SignatureResponse holds a rendered message or enum declaration
type SignatureResponse struct {
	Symbol     string   `json:"symbol"`
	Generation uint64   `json:"generation"`
	Excluded   []string `json:"excluded,omitempty"`
	Signature  string   `json:"signature"`
}

// RouteResponse describes the HTTP binding of a method
type RouteResponse struct {
	Method          string   `json:"method"`
	Verb            string   `json:"verb"`
	Path            string   `json:"path"`
	Body            string   `json:"body,omitempty"`
	BodyType        string   `json:"body_type"`
	Parameters      []string `json:"parameters"`
	QueryParameters []string `json:"query_parameters"`
	Extension       string   `json:"extension"`
	Deprecated      bool     `json:"deprecated,omitempty"`
}

// RelatedResponse lists the types a method exposes beyond its body and
// response
type RelatedResponse struct {
	Method string   `json:"method"`
	Types  []string `json:"types"`
	Enums  []string `json:"enums"`
}

// ParameterResponse documents a route or query parameter
type ParameterResponse struct {
	Name        string `json:"name"`
	Template    string `json:"template,omitempty"`
	Description string `json:"description,omitempty"`
}

// MethodResponse is the full documentation page of a method
type MethodResponse struct {
	Method          string              `json:"method"`
	Name            string              `json:"name"`
	Kind            string              `json:"kind"`
	Description     string              `json:"description,omitempty"`
	Deprecated      bool                `json:"deprecated,omitempty"`
	ClientStreaming bool                `json:"client_streaming"`
	ServerStreaming bool                `json:"server_streaming"`
	RequestType     string              `json:"request_type"`
	ResponseType    string              `json:"response_type"`
	Notes           []string            `json:"notes,omitempty"`
	URITemplate     string              `json:"uri_template,omitempty"`
	Topic           string              `json:"topic,omitempty"`
	RouteParameters []ParameterResponse `json:"route_parameters,omitempty"`
	QueryParameters []ParameterResponse `json:"query_parameters,omitempty"`
	BodyType        string              `json:"body_type,omitempty"`
	RequestBody     string              `json:"request_body,omitempty"`
	InputType       string              `json:"input_type,omitempty"`
	ResponseBody    string              `json:"response_body,omitempty"`
	RelatedTypes    []string            `json:"related_types"`
	RelatedEnums    []string            `json:"related_enums"`
	RelatedBlocks   []string            `json:"related_blocks,omitempty"`
}

// MethodSummary is a method entry of a service listing
type MethodSummary struct {
	Name            string `json:"name"`
	Method          string `json:"method"`
	Description     string `json:"description,omitempty"`
	HTTPMethod      string `json:"http_method,omitempty"`
	HTTPPath        string `json:"http_path,omitempty"`
	Topic           string `json:"topic,omitempty"`
	ClientStreaming bool   `json:"client_streaming"`
	ServerStreaming bool   `json:"server_streaming"`
	Deprecated      bool   `json:"deprecated,omitempty"`
}

// ServiceSummary is one entry of a service listing
type ServiceSummary struct {
	Name        string          `json:"name"`
	Service     string          `json:"service"`
	Description string          `json:"description,omitempty"`
	Methods     []MethodSummary `json:"methods"`
}

// FileSummary is one entry of a file listing
type FileSummary struct {
	Name     string `json:"name"`
	Package  string `json:"package"`
	Messages int    `json:"messages"`
	Enums    int    `json:"enums"`
	Services int    `json:"services"`
}

func newMethodResponse(page *docs.MethodPage) *MethodResponse {
	m := page.Method
	resp := &MethodResponse{
		Method:          m.FullName,
		Name:            m.Name,
		Kind:            page.Kind,
		Description:     m.Description,
		Deprecated:      m.Deprecated,
		ClientStreaming: m.ClientStreaming,
		ServerStreaming: m.ServerStreaming,
		RequestType:     m.RequestType,
		ResponseType:    m.ResponseType,
		Notes:           page.Notes,
		URITemplate:     page.URITemplate,
		Topic:           m.WebSocketTopic,
		BodyType:        page.BodyType,
		RequestBody:     page.RequestBody,
		InputType:       page.InputType,
		ResponseBody:    page.ResponseBody,
		RelatedTypes:    nonNil(page.RelatedTypes),
		RelatedEnums:    nonNil(page.RelatedEnums),
		RelatedBlocks:   page.RelatedBlocks,
	}
	for _, p := range page.RouteParameters {
		resp.RouteParameters = append(resp.RouteParameters, ParameterResponse(*p))
	}
	for _, p := range page.QueryParameters {
		resp.QueryParameters = append(resp.QueryParameters, ParameterResponse(*p))
	}
	return resp
}

func newServiceSummary(svc *docs.ServiceDoc) ServiceSummary {
	summary := ServiceSummary{
		Name:        svc.Name,
		Service:     svc.FullName,
		Description: svc.Description,
		Methods:     make([]MethodSummary, 0, len(svc.Methods)),
	}
	for _, m := range svc.Methods {
		summary.Methods = append(summary.Methods, MethodSummary{
			Name:            m.Name,
			Method:          m.FullName,
			Description:     m.Description,
			HTTPMethod:      m.HTTPMethod,
			HTTPPath:        m.HTTPPath,
			Topic:           m.WebSocketTopic,
			ClientStreaming: m.ClientStreaming,
			ServerStreaming: m.ServerStreaming,
			Deprecated:      m.Deprecated,
		})
	}
	return summary
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
