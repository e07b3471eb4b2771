package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/platinummonkey/protodoc/pkg/internal/prototest"
)

func TestValidateCommand(t *testing.T) {
	t.Run("valid descriptor set", func(t *testing.T) {
		out := captureOutput(t)
		err := NewRootCommand().ExecuteArgs([]string{"validate", "-set", writeFixture(t, prototest.Node)})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "are valid")
	})

	t.Run("unknown body field", func(t *testing.T) {
		captureOutput(t)
		err := NewRootCommand().ExecuteArgs([]string{"validate", "-set", writeFixture(t, prototest.Items)})
		assert.ErrorContains(t, err, `body "title" names no field of .pkg.RenameItemRequest`)
	})

	t.Run("dangling reference", func(t *testing.T) {
		captureOutput(t)
		set := prototest.Set(t, nil, prototest.Node)
		graph := set.File[len(set.File)-1]
		graph.MessageType[1].Field[1].TypeName = proto.String(".graph.Gone")

		data, err := proto.Marshal(set)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "bad.binpb")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		err = NewRootCommand().ExecuteArgs([]string{"validate", "-set", path})
		assert.ErrorContains(t, err, "unknown symbol .graph.Gone (referenced by .graph.Edge.weight)")

		err = NewRootCommand().ExecuteArgs([]string{"validate", "-strict", "-set", path})
		assert.ErrorContains(t, err, "descriptor set failed validation")
	})

	t.Run("not a descriptor set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.binpb")
		require.NoError(t, os.WriteFile(path, []byte("not a descriptor set"), 0o644))
		err := NewRootCommand().ExecuteArgs([]string{"validate", "-set", path})
		assert.ErrorContains(t, err, "decode descriptor set")
	})
}
