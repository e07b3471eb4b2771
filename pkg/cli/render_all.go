package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/registry"
	"golang.org/x/sync/errgroup"
)

func newRenderAllCommand() *Command {
	return &Command{
		Name:        "render-all",
		Description: "Write Markdown pages for every method and file",
		Flags:       flag.NewFlagSet("render-all", flag.ExitOnError),
		Run:         runRenderAll,
	}
}

func runRenderAll(args []string) error {
	flags := flag.NewFlagSet("render-all", flag.ExitOnError)
	load := addLoadFlags(flags)
	out := flags.String("out", "", "Output directory")
	workers := flags.Int("workers", runtime.NumCPU(), "Maximum pages rendered concurrently")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}

	ctx := context.Background()
	snap, err := load.snapshot(ctx)
	if err != nil {
		return err
	}

	count, err := renderAll(ctx, snap, *out, *workers)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Rendered %d pages to %s\n", count, *out)
	return nil
}

// renderAll writes one page per method under <out>/<service>/ and one per
// descriptor file under <out>/files/. Pages are rendered concurrently from
// the shared snapshot.
func renderAll(ctx context.Context, snap *registry.Snapshot, out string, workers int) (int64, error) {
	services, err := snap.Docs.Services()
	if err != nil {
		return 0, err
	}

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	exporter := docs.NewMarkdownExporter()
	var written atomic.Int64

	write := func(path, content string) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written.Add(1)
		return nil
	}

	for _, svc := range services {
		dir := filepath.Join(out, strings.TrimPrefix(svc.FullName, "."))
		for _, method := range svc.Methods {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				page, err := snap.Docs.MethodPage(method.FullName)
				if err != nil {
					return err
				}
				return write(filepath.Join(dir, method.Name+".md"), exporter.ExportMethod(page))
			})
		}
	}

	for _, file := range snap.Index.Files() {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := snap.Docs.GenerateFile(file)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(file.GetName(), ".proto") + ".md"
			return write(filepath.Join(out, "files", filepath.FromSlash(name)), exporter.Export(doc))
		})
	}

	if err := eg.Wait(); err != nil {
		return written.Load(), err
	}
	return written.Load(), nil
}
