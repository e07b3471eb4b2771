package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/httputil"
	"github.com/platinummonkey/protodoc/pkg/registry"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
)

// Query operation names, used as metric labels
const (
	opSymbols  = "symbols"
	opSymbol   = "symbol"
	opComment  = "comment"
	opMessage  = "message_signature"
	opEnum     = "enum_signature"
	opMethod   = "method"
	opRelated  = "related"
	opRoute    = "route"
	opServices = "services"
	opFiles    = "files"
	opFile     = "file"
)

const (
	formatText = "text"
	formatMD   = "markdown"

	statusOK      = "ok"
	statusLoading = "loading"
)

// snapshot returns the current snapshot or writes 503
func (s *Server) snapshot(w http.ResponseWriter) (*registry.Snapshot, bool) {
	snap, err := s.registry.Snapshot()
	if err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return nil, false
	}
	return snap, true
}

// writeError maps query errors onto status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.ObserveQuery(op, err)

	var (
		unknown  *descriptor.UnknownSymbolError
		mismatch *descriptor.KindMismatchError
		body     *transcoding.UnknownBodyFieldError
	)
	switch {
	case errors.Is(err, registry.ErrNoSnapshot):
		httputil.WriteServiceUnavailable(w, err.Error())
	case errors.As(err, &unknown):
		httputil.WriteErrorResponse(w, http.StatusNotFound, httputil.ErrorResponse{Error: err.Error(), Symbol: unknown.Symbol})
	case errors.As(err, &mismatch):
		httputil.WriteErrorResponse(w, http.StatusNotFound, httputil.ErrorResponse{Error: err.Error(), Symbol: mismatch.Symbol})
	case errors.As(err, &body):
		httputil.WriteErrorResponse(w, http.StatusUnprocessableEntity, httputil.ErrorResponse{Error: err.Error(), Symbol: body.Method})
	case errors.Is(err, docs.ErrUnknownFile):
		httputil.WriteNotFoundError(w, err.Error())
	default:
		s.logger.WithError(err).
			WithField("request_id", httputil.RequestIDFromContext(r.Context())).
			WithField("operation", op).
			Error("Query failed")
		httputil.WriteInternalError(w, err)
	}
}

func (s *Server) ok(op string) {
	s.metrics.ObserveQuery(op, nil)
}

// health handles GET /healthz
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.registry.Current()
	if snap == nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: statusLoading,
			Source: s.registry.Source().String(),
		})
		return
	}
	httputil.WriteSuccess(w, HealthResponse{
		Status:     statusOK,
		Source:     s.registry.Source().String(),
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt,
		Digest:     snap.Digest,
		Symbols:    snap.Index.Len(),
	})
}

// listSymbols handles GET /v1/symbols?kind=&prefix=
func (s *Server) listSymbols(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	kind := strings.ReplaceAll(httputil.ParseQueryString(r, "kind", ""), "_", " ")
	prefix := httputil.ParseQueryString(r, "prefix", "")

	resp := SymbolListResponse{Generation: snap.Generation, Symbols: make([]SymbolSummary, 0)}
	for _, symbol := range snap.Index.Symbols() {
		if prefix != "" && !strings.HasPrefix(symbol, prefix) {
			continue
		}
		entry, err := snap.Index.Resolve(symbol)
		if err != nil {
			s.writeError(w, r, opSymbols, err)
			return
		}
		if kind != "" && entry.Kind.String() != kind {
			continue
		}
		resp.Symbols = append(resp.Symbols, SymbolSummary{Symbol: symbol, Kind: entry.Kind.String()})
	}

	s.ok(opSymbols)
	httputil.WriteSuccess(w, resp)
}

// getSymbol handles GET /v1/symbols/{symbol}
func (s *Server) getSymbol(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	entry, err := snap.Index.Resolve(symbol)
	if err != nil {
		s.writeError(w, r, opSymbol, err)
		return
	}
	comment, _ := snap.Comments.Lookup(symbol)

	s.ok(opSymbol)
	httputil.WriteSuccess(w, SymbolResponse{
		Symbol:  entry.Symbol,
		Kind:    entry.Kind.String(),
		Name:    entry.Name(),
		Package: entry.Package,
		File:    entry.File.GetName(),
		Comment: comment,
	})
}

// getComment handles GET /v1/comments/{symbol}
func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	if !snap.Index.Has(symbol) {
		s.writeError(w, r, opComment, &descriptor.UnknownSymbolError{Symbol: symbol})
		return
	}
	comment, found := snap.Comments.Lookup(symbol)

	s.ok(opComment)
	httputil.WriteSuccess(w, CommentResponse{Symbol: symbol, Found: found, Comment: comment})
}

// messageSignature handles GET /v1/messages/{symbol}/signature?exclude=&format=
func (s *Server) messageSignature(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	excluded := httputil.ParseQueryList(r, "exclude")
	sort.Strings(excluded)

	text, err := s.cached(snap, "message", symbol, excluded, func() (string, error) {
		return snap.Renderer.RenderMessage(symbol, excluded...)
	})
	if err != nil {
		s.writeError(w, r, opMessage, err)
		return
	}

	s.ok(opMessage)
	s.writeSignature(w, r, SignatureResponse{
		Symbol:     symbol,
		Generation: snap.Generation,
		Excluded:   excluded,
		Signature:  text,
	})
}

// enumSignature handles GET /v1/enums/{symbol}/signature?format=
func (s *Server) enumSignature(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	text, err := s.cached(snap, "enum", symbol, nil, func() (string, error) {
		return snap.Renderer.RenderEnum(symbol)
	})
	if err != nil {
		s.writeError(w, r, opEnum, err)
		return
	}

	s.ok(opEnum)
	s.writeSignature(w, r, SignatureResponse{
		Symbol:     symbol,
		Generation: snap.Generation,
		Signature:  text,
	})
}

func (s *Server) writeSignature(w http.ResponseWriter, r *http.Request, resp SignatureResponse) {
	if httputil.ParseQueryString(r, "format", "") == formatText {
		httputil.WriteText(w, resp.Signature)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// cached renders through the signature cache. Keys carry the snapshot
// generation, so a swapped snapshot never serves stale text.
func (s *Server) cached(snap *registry.Snapshot, kind, symbol string, excluded []string, render func() (string, error)) (string, error) {
	if s.cache == nil {
		return render()
	}

	key := fmt.Sprintf("%d|%s|%s|%s", snap.Generation, kind, symbol, strings.Join(excluded, ","))
	if text, ok := s.cache.Get(key); ok {
		s.metrics.ObserveCache(signatureCache, true)
		return text, nil
	}
	s.metrics.ObserveCache(signatureCache, false)

	text, err := render()
	if err != nil {
		return "", err
	}
	s.cache.Add(key, text)
	return text, nil
}

// getMethod handles GET /v1/methods/{symbol}?format=
func (s *Server) getMethod(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	page, err := snap.Docs.MethodPage(symbol)
	if err != nil {
		s.writeError(w, r, opMethod, err)
		return
	}

	s.ok(opMethod)
	if httputil.ParseQueryString(r, "format", "") == formatMD {
		httputil.WriteText(w, docs.NewMarkdownExporter().ExportMethod(page))
		return
	}
	httputil.WriteSuccess(w, newMethodResponse(page))
}

// getRelated handles GET /v1/methods/{symbol}/related
func (s *Server) getRelated(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	types, err := snap.Analyzer.RelatedTypes(symbol)
	if err != nil {
		s.writeError(w, r, opRelated, err)
		return
	}
	enums, err := snap.Analyzer.RelatedEnums(symbol)
	if err != nil {
		s.writeError(w, r, opRelated, err)
		return
	}

	s.ok(opRelated)
	httputil.WriteSuccess(w, RelatedResponse{Method: symbol, Types: nonNil(types), Enums: nonNil(enums)})
}

// getRoute handles GET /v1/methods/{symbol}/route
func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	symbol, ok := httputil.ParsePathSymbolOrError(w, r, "symbol")
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	entry, err := snap.Index.Method(symbol)
	if err != nil {
		s.writeError(w, r, opRoute, err)
		return
	}
	verb, path, found := transcoding.RouteVerbAndPath(entry.Route)
	if !found {
		s.metrics.ObserveQuery(opRoute, nil)
		httputil.WriteErrorResponse(w, http.StatusNotFound, httputil.ErrorResponse{
			Error:  "method has no HTTP route",
			Symbol: symbol,
		})
		return
	}
	bodyType, err := snap.Transcoder.BodySymbol(entry)
	if err != nil {
		s.writeError(w, r, opRoute, err)
		return
	}
	query, err := snap.Transcoder.QueryParameters(symbol)
	if err != nil {
		s.writeError(w, r, opRoute, err)
		return
	}

	s.ok(opRoute)
	httputil.WriteSuccess(w, RouteResponse{
		Method:          symbol,
		Verb:            verb,
		Path:            path,
		Body:            entry.Route.Body,
		BodyType:        bodyType,
		Parameters:      nonNil(transcoding.RouteParameters(path)),
		QueryParameters: nonNil(query),
		Extension:       entry.Route.Extension,
		Deprecated:      entry.Route.Deprecated,
	})
}

// listServices handles GET /v1/services
func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	services, err := snap.Docs.Services()
	if err != nil {
		s.writeError(w, r, opServices, err)
		return
	}
	resp := make([]ServiceSummary, 0, len(services))
	for _, svc := range services {
		resp = append(resp, newServiceSummary(svc))
	}

	s.ok(opServices)
	httputil.WriteSuccess(w, resp)
}

// listFiles handles GET /v1/files
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	files := snap.Index.Files()
	resp := make([]FileSummary, 0, len(files))
	for _, file := range files {
		resp = append(resp, FileSummary{
			Name:     file.GetName(),
			Package:  file.GetPackage(),
			Messages: len(file.GetMessageType()),
			Enums:    len(file.GetEnumType()),
			Services: len(file.GetService()),
		})
	}

	s.ok(opFiles)
	httputil.WriteSuccess(w, resp)
}

// getFile handles GET /v1/files/{name}?format=
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	name, err := httputil.ParsePathString(r, "name")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	doc, err := snap.Docs.GenerateFileByName(name)
	if err != nil {
		s.writeError(w, r, opFile, err)
		return
	}

	s.ok(opFile)
	if httputil.ParseQueryString(r, "format", "") == formatMD {
		httputil.WriteText(w, docs.NewMarkdownExporter().Export(doc))
		return
	}
	httputil.WriteSuccess(w, doc)
}
