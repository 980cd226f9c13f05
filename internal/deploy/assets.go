package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3API defines the S3 operations used to publish deployment assets.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Assets publishes content-addressed deployment packages to a bucket.
type Assets struct {
	api    S3API
	log    zerolog.Logger
	bucket string
	prefix string
}

func NewAssets(api S3API, log zerolog.Logger, bucket, prefix string) *Assets {
	return &Assets{api: api, log: log, bucket: bucket, prefix: prefix}
}

// Bucket returns the asset bucket name.
func (a *Assets) Bucket() string {
	return a.bucket
}

// Key returns the object key for a package: <prefix>/<name>/<sha256>.zip.
func (a *Assets) Key(name string, pkg []byte) string {
	sum := sha256.Sum256(pkg)
	return path.Join(a.prefix, name, hex.EncodeToString(sum[:])+".zip")
}

// Upload stores pkg unless an object with the same digest already exists,
// and returns its key.
func (a *Assets) Upload(ctx context.Context, name string, pkg []byte) (string, error) {
	key := a.Key(name, pkg)

	_, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		a.log.Debug().Str("bucket", a.bucket).Str("key", key).Msg("asset already uploaded")
		return key, nil
	}
	var nf *s3types.NotFound
	if !errors.As(err, &nf) {
		return "", fmt.Errorf("HeadObject: %w", err)
	}

	if _, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pkg),
		ContentType: aws.String("application/zip"),
	}); err != nil {
		return "", fmt.Errorf("PutObject: %w", err)
	}
	a.log.Info().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(pkg)).Msg("uploaded asset")
	return key, nil
}

// zipEpoch is stamped on every archive entry so equal inputs zip to equal bytes.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// PackageBootstrap zips a compiled custom-runtime binary as "bootstrap".
func PackageBootstrap(binaryPath string) ([]byte, error) {
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("reading function binary: %w", err)
	}
	return zipBootstrap(data)
}

func zipBootstrap(binary []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	hdr := &zip.FileHeader{
		Name:     "bootstrap",
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	hdr.SetMode(0o755)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("creating archive entry: %w", err)
	}
	if _, err := w.Write(binary); err != nil {
		return nil, fmt.Errorf("writing archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
