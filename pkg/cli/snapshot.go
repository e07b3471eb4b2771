package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/registry"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// loadFlags are shared by every command that queries a descriptor set
type loadFlags struct {
	config *string
	set    *string
	strict *bool
}

func addLoadFlags(fs *flag.FlagSet) *loadFlags {
	return &loadFlags{
		config: fs.String("config", "", "Path to a YAML config file"),
		set:    fs.String("set", "", "Descriptor set path, file:// or s3:// URI (overrides the config source)"),
		strict: fs.Bool("strict", false, "Reject descriptor sets with dangling type references"),
	}
}

// load reads the configuration and the flag overrides
func (f *loadFlags) load() (*config.Config, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return nil, err
	}
	if *f.set != "" {
		cfg.Source.URI = *f.set
	}
	if *f.strict {
		cfg.Source.Strict = true
	}
	if cfg.Source.URI == "" {
		return nil, fmt.Errorf("a descriptor set is required: pass -set or set PROTODOC_SOURCE")
	}
	return cfg, nil
}

// snapshot loads and indexes the descriptor set once
func (f *loadFlags) snapshot(ctx context.Context) (*registry.Snapshot, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}

	source, err := registry.ParseSource(ctx, cfg.Source.URI, cfg.Source.S3Options())
	if err != nil {
		return nil, err
	}
	schema, err := buildSchema(ctx, cfg.Schema)
	if err != nil {
		return nil, err
	}
	data, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return registry.NewSnapshot(data, registry.BuildOptions{
		Schema:     schema,
		Exclusions: cfg.Schema.Exclusions,
		Strict:     cfg.Source.Strict,
		Logger:     quietLogger(),
	})
}

// buildSchema compiles the annotation schema described by the config. The
// embedded default is used when nothing is customized.
func buildSchema(ctx context.Context, sc config.SchemaConfig) (*annotations.Schema, error) {
	if sc.Dir == "" && len(sc.RouteExtensions) == 0 && len(sc.WebSocketExtensions) == 0 {
		return annotations.Default()
	}

	var opts []annotations.Option
	if sc.Dir != "" {
		sources, err := annotations.ReadSourceDir(sc.Dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, annotations.WithSources(sources))
	}
	if len(sc.RouteExtensions) > 0 {
		opts = append(opts, annotations.WithRouteExtensions(fullNames(sc.RouteExtensions)...))
	}
	if len(sc.WebSocketExtensions) > 0 {
		opts = append(opts, annotations.WithWebSocketExtensions(fullNames(sc.WebSocketExtensions)...))
	}
	return annotations.Compile(ctx, opts...)
}

func fullNames(names []string) []protoreflect.FullName {
	out := make([]protoreflect.FullName, len(names))
	for i, name := range names {
		out[i] = protoreflect.FullName(name)
	}
	return out
}

// quietLogger keeps index build chatter out of command output
func quietLogger() *logrus.Logger {
	logger, _ := observability.NewLogger("warn", observability.FormatText, os.Stderr)
	return logger
}

// symbolArg returns the single positional symbol argument with a leading dot
func symbolArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one symbol argument, got %d", fs.NArg())
	}
	symbol := fs.Arg(0)
	if symbol != "" && symbol[0] != '.' {
		symbol = "." + symbol
	}
	return symbol, nil
}
