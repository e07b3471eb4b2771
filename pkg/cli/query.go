package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/comments"
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
)

func newSymbolsCommand() *Command {
	return &Command{
		Name:        "symbols",
		Description: "List declared symbols",
		Flags:       flag.NewFlagSet("symbols", flag.ExitOnError),
		Run:         runSymbols,
	}
}

func runSymbols(args []string) error {
	flags := flag.NewFlagSet("symbols", flag.ExitOnError)
	load := addLoadFlags(flags)
	kind := flags.String("kind", "", "Only list symbols of this kind (message, field, oneof, enum, enum_value, service, method)")
	prefix := flags.String("prefix", "", "Only list symbols starting with this prefix")
	if err := flags.Parse(args); err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}

	want := strings.ReplaceAll(*kind, "_", " ")
	for _, symbol := range snap.Index.Symbols() {
		if !strings.HasPrefix(symbol, *prefix) {
			continue
		}
		entry, err := snap.Index.Resolve(symbol)
		if err != nil {
			return err
		}
		if want != "" && entry.Kind.String() != want {
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", symbol, entry.Kind)
	}
	return nil
}

func newCommentCommand() *Command {
	return &Command{
		Name:        "comment",
		Description: "Print the leading comment of a symbol",
		Flags:       flag.NewFlagSet("comment", flag.ExitOnError),
		Run:         runComment,
	}
}

func runComment(args []string) error {
	flags := flag.NewFlagSet("comment", flag.ExitOnError)
	load := addLoadFlags(flags)
	prefix := flags.String("prefix", "//", "Prefix written before every comment line")
	if err := flags.Parse(args); err != nil {
		return err
	}
	symbol, err := symbolArg(flags)
	if err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}
	if !snap.Index.Has(symbol) {
		return &descriptor.UnknownSymbolError{Symbol: symbol}
	}
	comment, ok := snap.Comments.Lookup(symbol)
	if !ok {
		return nil
	}
	fmt.Fprint(stdout, comments.Format(comment, "", *prefix))
	return nil
}

func newRenderCommand() *Command {
	return &Command{
		Name:        "render",
		Description: "Render the signature of a message or enum",
		Flags:       flag.NewFlagSet("render", flag.ExitOnError),
		Run:         runRender,
	}
}

func runRender(args []string) error {
	flags := flag.NewFlagSet("render", flag.ExitOnError)
	load := addLoadFlags(flags)
	exclude := flags.String("exclude", "", "Comma separated JSON names of fields to leave out")
	if err := flags.Parse(args); err != nil {
		return err
	}
	symbol, err := symbolArg(flags)
	if err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}
	entry, err := snap.Index.Resolve(symbol)
	if err != nil {
		return err
	}

	var text string
	switch entry.Kind {
	case descriptor.KindMessage:
		text, err = snap.Renderer.RenderMessage(symbol, splitList(*exclude)...)
	case descriptor.KindEnum:
		text, err = snap.Renderer.RenderEnum(symbol)
	default:
		return fmt.Errorf("%s is a %s; only messages and enums can be rendered", symbol, entry.Kind)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, text)
	return nil
}

func newRouteCommand() *Command {
	return &Command{
		Name:        "route",
		Description: "Show the HTTP route of a method",
		Flags:       flag.NewFlagSet("route", flag.ExitOnError),
		Run:         runRoute,
	}
}

func runRoute(args []string) error {
	flags := flag.NewFlagSet("route", flag.ExitOnError)
	load := addLoadFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	symbol, err := symbolArg(flags)
	if err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}
	entry, err := snap.Index.Method(symbol)
	if err != nil {
		return err
	}
	verb, path, ok := transcoding.RouteVerbAndPath(entry.Route)
	if !ok {
		return fmt.Errorf("method %s has no HTTP route", symbol)
	}
	body, err := snap.Transcoder.BodySymbol(entry)
	if err != nil {
		return err
	}
	query, err := snap.Transcoder.QueryParameters(symbol)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s %s\n", verb, path)
	fmt.Fprintf(stdout, "body: %s\n", body)
	if params := transcoding.RouteParameters(path); len(params) > 0 {
		fmt.Fprintf(stdout, "route parameters: %s\n", strings.Join(params, ", "))
	}
	if len(query) > 0 {
		fmt.Fprintf(stdout, "query parameters: %s\n", strings.Join(query, ", "))
	}
	return nil
}

func newRelatedCommand() *Command {
	return &Command{
		Name:        "related",
		Description: "List the types a method exposes beyond its body and response",
		Flags:       flag.NewFlagSet("related", flag.ExitOnError),
		Run:         runRelated,
	}
}

func runRelated(args []string) error {
	flags := flag.NewFlagSet("related", flag.ExitOnError)
	load := addLoadFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	symbol, err := symbolArg(flags)
	if err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}
	types, err := snap.Analyzer.RelatedTypes(symbol)
	if err != nil {
		return err
	}
	enums, err := snap.Analyzer.RelatedEnums(symbol)
	if err != nil {
		return err
	}

	for _, t := range types {
		fmt.Fprintf(stdout, "message\t%s\n", t)
	}
	for _, e := range enums {
		fmt.Fprintf(stdout, "enum\t%s\n", e)
	}
	return nil
}

func newMethodCommand() *Command {
	return &Command{
		Name:        "method",
		Description: "Print the Markdown documentation page of a method",
		Flags:       flag.NewFlagSet("method", flag.ExitOnError),
		Run:         runMethod,
	}
}

func runMethod(args []string) error {
	flags := flag.NewFlagSet("method", flag.ExitOnError)
	load := addLoadFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	symbol, err := symbolArg(flags)
	if err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}
	page, err := snap.Docs.MethodPage(symbol)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, docs.NewMarkdownExporter().ExportMethod(page))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
