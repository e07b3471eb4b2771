package registry

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source loads a serialized FileDescriptorSet
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads a descriptor set from the local filesystem
type FileSource struct {
	Path string
}

// Load reads the whole file
func (s *FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor set: %w", err)
	}
	return data, nil
}

func (s *FileSource) String() string {
	return "file://" + s.Path
}

// S3API is the subset of the S3 client used by S3Source
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configure the S3 client built by ParseSource
type S3Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Source reads a descriptor set from an S3 (or S3 compatible) object
type S3Source struct {
	Client S3API
	Bucket string
	Key    string
}

// NewS3Client creates an S3 client. Static credentials are used when both
// keys are set, otherwise the default credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// Load fetches the object
func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	result, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object from s3: %w", err)
	}
	return data, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// ParseSource parses a source URI: a bare path, file://path or
// s3://bucket/key. The S3 client is only created for s3 URIs.
func ParseSource(ctx context.Context, uri string, s3opts S3Options) (Source, error) {
	if uri == "" {
		return nil, fmt.Errorf("source is required")
	}
	if !strings.Contains(uri, "://") {
		return &FileSource{Path: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", uri, err)
	}
	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		return &FileSource{Path: path}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 source %q: want s3://bucket/key", uri)
		}
		client, err := NewS3Client(ctx, s3opts)
		if err != nil {
			return nil, err
		}
		return &S3Source{Client: client, Bucket: u.Host, Key: key}, nil
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}
