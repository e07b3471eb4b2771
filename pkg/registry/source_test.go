package registry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/internal/prototest"
)

type fakeS3 struct {
	objects map[string][]byte
	calls   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.binpb")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	src := &FileSource{Path: path}
	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, "file://"+path, src.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing")}).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestS3Source(t *testing.T) {
	data := prototest.Bytes(t, prototest.Node)
	client := &fakeS3{objects: map[string][]byte{"descriptors/api/set.binpb": data}}

	src := &S3Source{Client: client, Bucket: "descriptors", Key: "api/set.binpb"}
	assert.Equal(t, "s3://descriptors/api/set.binpb", src.String())

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	reg := New(src, WithLogger(quietLogger()))
	swapped, err := reg.Reload(context.Background(), TriggerSchedule)
	require.NoError(t, err)
	assert.True(t, swapped)
	assert.True(t, reg.Current().Index.Has(".graph.Node"))

	missing := &S3Source{Client: client, Bucket: "descriptors", Key: "nope"}
	_, err = missing.Load(context.Background())
	assert.ErrorContains(t, err, "NoSuchKey")
}

func TestParseSource(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		uri     string
		want    Source
		wantErr string
	}{
		{name: "bare path", uri: "/data/set.binpb", want: &FileSource{Path: "/data/set.binpb"}},
		{name: "relative path", uri: "build/set.binpb", want: &FileSource{Path: "build/set.binpb"}},
		{name: "file uri", uri: "file:///data/set.binpb", want: &FileSource{Path: "/data/set.binpb"}},
		{name: "relative file uri", uri: "file://build/set.binpb", want: &FileSource{Path: "build/set.binpb"}},
		{name: "empty", uri: "", wantErr: "source is required"},
		{name: "s3 without key", uri: "s3://bucket", wantErr: "want s3://bucket/key"},
		{name: "unknown scheme", uri: "ftp://host/set.binpb", wantErr: "unsupported source scheme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(ctx, tt.uri, S3Options{})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, src)
		})
	}

	t.Run("s3", func(t *testing.T) {
		src, err := ParseSource(ctx, "s3://descriptors/api/set.binpb", S3Options{
			Region:       "us-east-1",
			Endpoint:     "http://localhost:9000",
			AccessKey:    "key",
			SecretKey:    "secret",
			UsePathStyle: true,
		})
		require.NoError(t, err)
		s3src, ok := src.(*S3Source)
		require.True(t, ok)
		assert.Equal(t, "descriptors", s3src.Bucket)
		assert.Equal(t, "api/set.binpb", s3src.Key)
		assert.NotNil(t, s3src.Client)
	})
}
