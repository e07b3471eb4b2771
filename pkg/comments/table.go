package comments

import (
	"strings"
	"unicode"

	"google.golang.org/protobuf/types/descriptorpb"
)

// Table maps symbols to their leading comment, trailing whitespace removed.
type Table map[string]string

// Resolve decodes every source location of files that carries a leading
// comment. Locations are applied in order, so a later location for the same
// symbol replaces an earlier one.
func Resolve(files []*descriptorpb.FileDescriptorProto) (Table, error) {
	table := make(Table)
	for _, file := range files {
		for _, loc := range file.GetSourceCodeInfo().GetLocation() {
			if loc.LeadingComments == nil {
				continue
			}
			symbol, ok, err := PathToSymbol(file, loc.GetPath())
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			table[symbol] = strings.TrimRightFunc(loc.GetLeadingComments(), unicode.IsSpace)
		}
	}
	return table, nil
}

// Lookup returns the comment attached to symbol.
func (t Table) Lookup(symbol string) (string, bool) {
	c, ok := t[symbol]
	return c, ok
}

// Formatted returns the comment of symbol rendered with Format.
func (t Table) Formatted(symbol, indent, prefix string) (string, bool) {
	c, ok := t[symbol]
	if !ok {
		return "", false
	}
	return Format(c, indent, prefix), true
}

// Format renders a comment as one line per source line, each written as
// indent+prefix+line with trailing whitespace trimmed. Blank lines are kept.
func Format(comment, indent, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(comment, "\n") {
		b.WriteString(indent)
		b.WriteString(prefix)
		b.WriteString(strings.TrimRightFunc(line, unicode.IsSpace))
		b.WriteByte('\n')
	}
	return b.String()
}
