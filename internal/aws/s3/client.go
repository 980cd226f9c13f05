package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	GetPublicAccessBlock(ctx context.Context, params *awss3.GetPublicAccessBlockInput, optFns ...func(*awss3.Options)) (*awss3.GetPublicAccessBlockOutput, error)
	GetBucketEncryption(ctx context.Context, params *awss3.GetBucketEncryptionInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketEncryptionOutput, error)
	GetBucketOwnershipControls(ctx context.Context, params *awss3.GetBucketOwnershipControlsInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketOwnershipControlsOutput, error)
}

type Client struct {
	api S3API
}

func NewClient(api S3API) *Client {
	return &Client{api: api}
}

// Posture is the access and encryption configuration of a bucket.
type Posture struct {
	Bucket          string
	PublicAccessOff bool
	Encryption      string
	ObjectOwnership string
	BlockedSettings int
}

// Private reports whether all four public access block settings are on.
func (p *Posture) Private() bool {
	return p.PublicAccessOff
}

func (c *Client) BucketPosture(ctx context.Context, bucket string) (*Posture, error) {
	p := &Posture{Bucket: bucket}

	pab, err := c.api.GetPublicAccessBlock(ctx, &awss3.GetPublicAccessBlockInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, fmt.Errorf("GetPublicAccessBlock: %w", err)
	}
	if cfg := pab.PublicAccessBlockConfiguration; cfg != nil {
		for _, on := range []*bool{cfg.BlockPublicAcls, cfg.BlockPublicPolicy, cfg.IgnorePublicAcls, cfg.RestrictPublicBuckets} {
			if aws.ToBool(on) {
				p.BlockedSettings++
			}
		}
		p.PublicAccessOff = p.BlockedSettings == 4
	}

	enc, err := c.api.GetBucketEncryption(ctx, &awss3.GetBucketEncryptionInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, fmt.Errorf("GetBucketEncryption: %w", err)
	}
	if cfg := enc.ServerSideEncryptionConfiguration; cfg != nil {
		for _, r := range cfg.Rules {
			if r.ApplyServerSideEncryptionByDefault != nil {
				p.Encryption = string(r.ApplyServerSideEncryptionByDefault.SSEAlgorithm)
				break
			}
		}
	}

	own, err := c.api.GetBucketOwnershipControls(ctx, &awss3.GetBucketOwnershipControlsInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, fmt.Errorf("GetBucketOwnershipControls: %w", err)
	}
	if own.OwnershipControls != nil && len(own.OwnershipControls.Rules) > 0 {
		p.ObjectOwnership = string(own.OwnershipControls.Rules[0].ObjectOwnership)
	}

	return p, nil
}
