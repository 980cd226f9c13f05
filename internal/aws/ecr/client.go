package ecr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

type ECRAPI interface {
	DescribeImages(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error)
}

type Client struct {
	api ECRAPI
}

func NewClient(api ECRAPI) *Client {
	return &Client{api: api}
}

// ImageRef is a parsed container image reference.
type ImageRef struct {
	Registry   string
	Repository string
	Tag        string
}

// Private reports whether the reference points at an ECR private registry.
func (r ImageRef) Private() bool {
	return strings.Contains(r.Registry, ".dkr.ecr.")
}

// ParseImageRef splits "registry/repo:tag". A missing tag means "latest".
func ParseImageRef(ref string) (ImageRef, error) {
	if ref == "" {
		return ImageRef{}, errors.New("empty image reference")
	}
	var out ImageRef
	rest := ref
	if i := strings.Index(rest, "/"); i > 0 {
		head := rest[:i]
		if strings.ContainsAny(head, ".:") || head == "localhost" {
			out.Registry = head
			rest = rest[i+1:]
		}
	}
	if at := strings.Index(rest, "@"); at >= 0 {
		rest = rest[:at]
	}
	if c := strings.LastIndex(rest, ":"); c >= 0 {
		out.Tag = rest[c+1:]
		rest = rest[:c]
	}
	if rest == "" {
		return ImageRef{}, fmt.Errorf("image reference %q has no repository", ref)
	}
	if out.Tag == "" {
		out.Tag = "latest"
	}
	out.Repository = rest
	return out, nil
}

// Image is a tagged image in a repository.
type Image struct {
	Repository string
	Tag        string
	Digest     string
	SizeMB     float64
	PushedAt   time.Time
}

// FindImage looks up repo:tag. It returns nil when the repository or the
// tag does not exist.
func (c *Client) FindImage(ctx context.Context, repo, tag string) (*Image, error) {
	out, err := c.api.DescribeImages(ctx, &awsecr.DescribeImagesInput{
		RepositoryName: aws.String(repo),
		ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
	})
	if err != nil {
		var notFound *ecrtypes.ImageNotFoundException
		var noRepo *ecrtypes.RepositoryNotFoundException
		if errors.As(err, &notFound) || errors.As(err, &noRepo) {
			return nil, nil
		}
		return nil, fmt.Errorf("DescribeImages: %w", err)
	}
	if len(out.ImageDetails) == 0 {
		return nil, nil
	}

	img := out.ImageDetails[0]
	digest := aws.ToString(img.ImageDigest)
	if parts := strings.SplitN(digest, ":", 2); len(parts) == 2 && len(parts[1]) > 12 {
		digest = parts[0] + ":" + parts[1][:12]
	}

	var pushedAt time.Time
	if img.ImagePushedAt != nil {
		pushedAt = *img.ImagePushedAt
	}

	var sizeMB float64
	if img.ImageSizeInBytes != nil {
		sizeMB = float64(*img.ImageSizeInBytes) / (1024 * 1024)
	}

	return &Image{
		Repository: repo,
		Tag:        tag,
		Digest:     digest,
		SizeMB:     sizeMB,
		PushedAt:   pushedAt,
	}, nil
}
