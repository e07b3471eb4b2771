package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/platinummonkey/protodoc/pkg/annotations"
	"github.com/platinummonkey/protodoc/pkg/comments"
	"github.com/platinummonkey/protodoc/pkg/descriptor"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/signature"
	"github.com/platinummonkey/protodoc/pkg/transcoding"
	"github.com/platinummonkey/protodoc/pkg/typegraph"
	"github.com/sirupsen/logrus"
)

// BuildOptions control how a snapshot is built from a descriptor set
type BuildOptions struct {
	// Schema decodes method options. Nil selects annotations.Default().
	Schema *annotations.Schema
	// Exclusions are never reported as related types. Nil selects
	// typegraph.DefaultExclusions.
	Exclusions []string
	// Strict rejects descriptor sets with dangling type references.
	Strict bool
	Logger *logrus.Logger
}

// Snapshot is one immutable, fully indexed version of a descriptor set
// together with the query components built over it.
type Snapshot struct {
	Generation uint64
	LoadedAt   time.Time
	Digest     string

	Index      *descriptor.Index
	Comments   comments.Table
	Transcoder *transcoding.Resolver
	Analyzer   *typegraph.Analyzer
	Renderer   *signature.Renderer
	Docs       *docs.Generator
}

// Digest returns the hex sha256 digest of a serialized descriptor set
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewSnapshot indexes a serialized FileDescriptorSet. The returned snapshot
// has generation zero; the Registry assigns generations when publishing.
func NewSnapshot(data []byte, opts BuildOptions) (*Snapshot, error) {
	idx, err := descriptor.Build(data,
		descriptor.WithAnnotations(opts.Schema),
		descriptor.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}
	if opts.Strict {
		if err := idx.Validate(); err != nil {
			return nil, fmt.Errorf("descriptor set failed validation: %w", err)
		}
	}

	table, err := comments.Resolve(idx.Files())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comments: %w", err)
	}

	return &Snapshot{
		LoadedAt:   time.Now().UTC(),
		Digest:     Digest(data),
		Index:      idx,
		Comments:   table,
		Transcoder: transcoding.NewResolver(idx),
		Analyzer:   typegraph.NewAnalyzer(idx, opts.Exclusions),
		Renderer:   signature.NewRenderer(idx, table),
		Docs:       docs.NewGenerator(idx, table, opts.Exclusions),
	}, nil
}
