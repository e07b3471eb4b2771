package docs

import (
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
)

// Types that never get a request/response signature of their own.
const (
	emptyType = ".google.protobuf.Empty"
)

const (
	noteClientStreaming = "This method uses client-streaming."
	noteServerStreaming = "This method uses server-streaming. " +
		"The server sends an unspecified amount of data using chunked transfer encoding."
	noteWebSocketClientStreaming = "This method supports client-streaming. " +
		"The reply on the first message includes the call identifier assigned by the server. " +
		"Specify this call identifier on subsequent messages, or the server will assume a new unrelated call."
)

// ParameterDoc documents a route or query parameter
type ParameterDoc struct {
	Name        string
	Template    string
	Description string
}

// MethodPage holds everything needed to document one method: its route,
// parameters, and the signatures of the types it exchanges
type MethodPage struct {
	Method          *MethodDoc
	Kind            string
	Notes           []string
	URITemplate     string
	RouteParameters []*ParameterDoc
	QueryParameters []*ParameterDoc

	BodyType      string
	RequestBody   string
	InputType     string
	ResponseBody  string
	RelatedTypes  []string
	RelatedEnums  []string
	RelatedBlocks []string
}

// Method page kinds
const (
	KindRoute     = "route"
	KindWebSocket = "websocket"
	KindRPC       = "rpc"
)

// MethodPage assembles the documentation page of a method
func (g *Generator) MethodPage(symbol string) (*MethodPage, error) {
	entry, err := g.index.Method(symbol)
	if err != nil {
		return nil, err
	}
	doc, err := g.methodDoc(symbol)
	if err != nil {
		return nil, err
	}
	method := entry.Method

	page := &MethodPage{Method: doc, Kind: KindRPC}
	switch {
	case entry.Route != nil:
		page.Kind = KindRoute
		if err := g.fillRoute(page, entry); err != nil {
			return nil, err
		}
	case entry.WebSocket != nil:
		page.Kind = KindWebSocket
		if method.GetClientStreaming() {
			page.Notes = append(page.Notes, noteWebSocketClientStreaming)
		}
		if input := method.GetInputType(); input != emptyType && !g.isHTTPBody(input) {
			if page.InputType, err = g.renderer.RenderMessage(input); err != nil {
				return nil, err
			}
		}
		if output := method.GetOutputType(); !g.isHTTPBody(output) {
			if page.ResponseBody, err = g.renderer.RenderMessage(output); err != nil {
				return nil, err
			}
		}
	}

	if page.RelatedTypes, err = g.analyzer.RelatedTypes(symbol); err != nil {
		return nil, err
	}
	if page.RelatedEnums, err = g.analyzer.RelatedEnums(symbol); err != nil {
		return nil, err
	}
	for _, related := range page.RelatedTypes {
		block, err := g.renderer.RenderMessage(related)
		if err != nil {
			return nil, err
		}
		page.RelatedBlocks = append(page.RelatedBlocks, block)
	}
	for _, related := range page.RelatedEnums {
		block, err := g.renderer.RenderEnum(related)
		if err != nil {
			return nil, err
		}
		page.RelatedBlocks = append(page.RelatedBlocks, block)
	}

	return page, nil
}

func (g *Generator) fillRoute(page *MethodPage, entry *descriptor.Entry) error {
	method := entry.Method
	if method.GetClientStreaming() {
		page.Notes = append(page.Notes, noteClientStreaming)
	}
	if method.GetServerStreaming() {
		page.Notes = append(page.Notes, noteServerStreaming)
	}

	page.URITemplate = transcoding.FormatRoute(entry.Route)
	_, path, _ := transcoding.RouteVerbAndPath(entry.Route)
	params := transcoding.RouteParameters(path)
	input := method.GetInputType()

	for _, param := range params {
		tmpl, _ := transcoding.RouteParameterTemplate(path, param)
		page.RouteParameters = append(page.RouteParameters, &ParameterDoc{
			Name:        param,
			Template:    tmpl,
			Description: g.comments[descriptor.Join(input, param)],
		})
	}

	query, err := g.transcoder.QueryParameters(entry.Symbol)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		msg, err := g.index.Message(input)
		if err != nil {
			return err
		}
		byJSON := make(map[string]string, len(msg.GetField()))
		for _, field := range msg.GetField() {
			byJSON[descriptor.JSONName(field)] = field.GetName()
		}
		for _, name := range query {
			page.QueryParameters = append(page.QueryParameters, &ParameterDoc{
				Name:        name,
				Template:    name,
				Description: g.comments[descriptor.Join(input, byJSON[name])],
			})
		}
	}

	if page.BodyType, err = g.transcoder.BodySymbol(entry); err != nil {
		return err
	}
	if entry.Route.HasBody {
		if page.RequestBody, err = g.renderer.RenderMessage(page.BodyType, params...); err != nil {
			return err
		}
	}

	if output := method.GetOutputType(); output != emptyType && !g.isHTTPBody(output) {
		if page.ResponseBody, err = g.renderer.RenderMessage(output); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) isHTTPBody(symbol string) bool {
	switch symbol {
	case ".yamcs.api.HttpBody", ".google.api.HttpBody":
		return true
	}
	return false
}

// HasRelated reports whether a method exposes types beyond its body and
// response
func (g *Generator) HasRelated(symbol string) (bool, error) {
	return g.analyzer.HasRelated(symbol)
}
