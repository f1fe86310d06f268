// Package publish uploads exported archives and their checksum manifest to
// S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/relkit/internal/archive"
	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/retry"
)

// ObjectPutter is the part of *s3.Client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object is one uploaded file.
type Object struct {
	Bucket string
	Key    string
	SHA256 string
	Size   int64
}

// URI returns the s3:// location of the object.
func (o Object) URI() string { return "s3://" + o.Bucket + "/" + o.Key }

// NewClient creates an S3 client for cfg. A custom endpoint (MinIO and other
// S3-compatible services) switches to path-style addressing; explicit keys
// take precedence over the default credential chain.
func NewClient(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	if cfg.Endpoint != "" {
		if err := validateEndpoint(cfg.Endpoint); err != nil {
			return nil, err
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(normalizeRegion(cfg.Region)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	}), nil
}

// Uploader writes release files below <prefix>/<version>/ in a bucket.
type Uploader struct {
	client ObjectPutter
	cfg    config.PublishConfig
	policy retry.Policy
}

// NewUploader returns an uploader using client.
func NewUploader(client ObjectPutter, cfg config.PublishConfig, policy retry.Policy) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, rkerrors.ValidationFailed("publish.bucket", "a bucket is required to publish")
	}
	return &Uploader{client: client, cfg: cfg, policy: policy}, nil
}

// Key returns the object key for a file of the given release version.
func (u *Uploader) Key(version, file string) string {
	return path.Join(strings.Trim(u.cfg.Prefix, "/"), version, filepath.Base(file))
}

// Upload puts every file under the version directory, in order, and stops at
// the first failure.
func (u *Uploader) Upload(ctx context.Context, version string, files ...string) ([]Object, error) {
	objects := make([]Object, 0, len(files))
	for _, f := range files {
		obj, err := u.upload(ctx, version, f)
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (u *Uploader) upload(ctx context.Context, version, file string) (Object, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return Object{}, rkerrors.FileSystemError("read "+file, err)
	}
	sum, err := archive.SHA256File(file)
	if err != nil {
		return Object{}, rkerrors.FileSystemError("checksum "+file, err)
	}

	obj := Object{Bucket: u.cfg.Bucket, Key: u.Key(version, file), SHA256: sum, Size: int64(len(data))}
	err = u.policy.Do(ctx, "s3 upload", func(ctx context.Context) error {
		_, perr := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(obj.Bucket),
			Key:           aws.String(obj.Key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(obj.Size),
			ContentType:   aws.String(contentType(file)),
			Metadata:      map[string]string{"sha256": sum},
		})
		if perr != nil {
			if errors.Is(perr, context.Canceled) || errors.Is(perr, context.DeadlineExceeded) {
				return perr
			}
			return rkerrors.WrapRetryable(perr, rkerrors.CategoryNetwork, rkerrors.SeverityError, "failed to upload object").
				WithContext("key", obj.Key)
		}
		return nil
	})
	if err != nil {
		return Object{}, err
	}

	slog.Info("Uploaded release file",
		logfields.File(filepath.Base(file)),
		logfields.URL(obj.URI()),
		logfields.Size(humanize.Bytes(uint64(obj.Size))))
	return obj, nil
}

func contentType(file string) string {
	name := strings.ToLower(filepath.Base(file))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "application/gzip"
	case strings.HasPrefix(name, "sha256sums"), strings.HasSuffix(name, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// validateEndpoint checks that the endpoint is an HTTP/HTTPS URL.
func validateEndpoint(endpoint string) error {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return rkerrors.ValidationFailed("publish.endpoint", "endpoint must start with http:// or https://")
	}
	return nil
}

// normalizeRegion returns the region, defaulting to "us-east-1" if empty.
func normalizeRegion(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return "us-east-1"
	}
	return region
}
