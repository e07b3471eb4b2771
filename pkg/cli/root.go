package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// stdout receives command output
var stdout io.Writer = os.Stdout

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "protodoc",
		Description: "protodoc - Protobuf descriptor introspection",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("protodoc", flag.ExitOnError),
	}

	// Add subcommands
	root.Subcommands["symbols"] = newSymbolsCommand()
	root.Subcommands["comment"] = newCommentCommand()
	root.Subcommands["render"] = newRenderCommand()
	root.Subcommands["route"] = newRouteCommand()
	root.Subcommands["related"] = newRelatedCommand()
	root.Subcommands["method"] = newMethodCommand()
	root.Subcommands["render-all"] = newRenderAllCommand()
	root.Subcommands["validate"] = newValidateCommand()
	root.Subcommands["serve"] = newServeCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with args
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(stdout, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(stdout, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
