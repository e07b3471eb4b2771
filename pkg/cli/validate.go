package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/descriptor"
)

func newValidateCommand() *Command {
	return &Command{
		Name:        "validate",
		Description: "Check that every symbol of a descriptor set can be documented",
		Flags:       flag.NewFlagSet("validate", flag.ExitOnError),
		Run:         runValidate,
	}
}

func runValidate(args []string) error {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	load := addLoadFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	snap, err := load.snapshot(context.Background())
	if err != nil {
		return err
	}

	// Dangling references are always reported here, strict or not
	var errs []error
	if err := snap.Index.Validate(); err != nil {
		errs = append(errs, err)
	}

	// Every body selector must name an input field and every declaration
	// must render
	for _, symbol := range snap.Index.Symbols() {
		entry, err := snap.Index.Resolve(symbol)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch entry.Kind {
		case descriptor.KindMethod:
			if _, err := snap.Transcoder.BodySymbol(entry); err != nil {
				errs = append(errs, err)
			}
		case descriptor.KindMessage:
			if descriptor.IsMapEntry(entry.Message) {
				continue
			}
			if _, err := snap.Renderer.RenderMessage(symbol); err != nil {
				errs = append(errs, err)
			}
		case descriptor.KindEnum:
			if _, err := snap.Renderer.RenderEnum(symbol); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}

	fmt.Fprintf(stdout, "%d symbols in %d files are valid\n", snap.Index.Len(), len(snap.Index.Files()))
	return nil
}
