package s3

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3API struct {
	getPublicAccessBlockFunc       func(ctx context.Context, params *awss3.GetPublicAccessBlockInput, optFns ...func(*awss3.Options)) (*awss3.GetPublicAccessBlockOutput, error)
	getBucketEncryptionFunc        func(ctx context.Context, params *awss3.GetBucketEncryptionInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketEncryptionOutput, error)
	getBucketOwnershipControlsFunc func(ctx context.Context, params *awss3.GetBucketOwnershipControlsInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketOwnershipControlsOutput, error)
}

func (m *mockS3API) GetPublicAccessBlock(ctx context.Context, params *awss3.GetPublicAccessBlockInput, optFns ...func(*awss3.Options)) (*awss3.GetPublicAccessBlockOutput, error) {
	return m.getPublicAccessBlockFunc(ctx, params, optFns...)
}
func (m *mockS3API) GetBucketEncryption(ctx context.Context, params *awss3.GetBucketEncryptionInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketEncryptionOutput, error) {
	return m.getBucketEncryptionFunc(ctx, params, optFns...)
}
func (m *mockS3API) GetBucketOwnershipControls(ctx context.Context, params *awss3.GetBucketOwnershipControlsInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketOwnershipControlsOutput, error) {
	return m.getBucketOwnershipControlsFunc(ctx, params, optFns...)
}

func postureMock(block bool) *mockS3API {
	return &mockS3API{
		getPublicAccessBlockFunc: func(ctx context.Context, params *awss3.GetPublicAccessBlockInput, optFns ...func(*awss3.Options)) (*awss3.GetPublicAccessBlockOutput, error) {
			return &awss3.GetPublicAccessBlockOutput{
				PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
					BlockPublicAcls:       awssdk.Bool(true),
					BlockPublicPolicy:     awssdk.Bool(block),
					IgnorePublicAcls:      awssdk.Bool(true),
					RestrictPublicBuckets: awssdk.Bool(true),
				},
			}, nil
		},
		getBucketEncryptionFunc: func(ctx context.Context, params *awss3.GetBucketEncryptionInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketEncryptionOutput, error) {
			return &awss3.GetBucketEncryptionOutput{
				ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
					Rules: []s3types.ServerSideEncryptionRule{{
						ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
							SSEAlgorithm: s3types.ServerSideEncryptionAes256,
						},
					}},
				},
			}, nil
		},
		getBucketOwnershipControlsFunc: func(ctx context.Context, params *awss3.GetBucketOwnershipControlsInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketOwnershipControlsOutput, error) {
			return &awss3.GetBucketOwnershipControlsOutput{
				OwnershipControls: &s3types.OwnershipControls{
					Rules: []s3types.OwnershipControlsRule{{ObjectOwnership: s3types.ObjectOwnershipBucketOwnerEnforced}},
				},
			}, nil
		},
	}
}

func TestBucketPosture(t *testing.T) {
	p, err := NewClient(postureMock(true)).BucketPosture(context.Background(), "data")
	require.NoError(t, err)
	assert.True(t, p.Private())
	assert.Equal(t, 4, p.BlockedSettings)
	assert.Equal(t, "AES256", p.Encryption)
	assert.Equal(t, "BucketOwnerEnforced", p.ObjectOwnership)
}

func TestBucketPosture_PartiallyOpen(t *testing.T) {
	p, err := NewClient(postureMock(false)).BucketPosture(context.Background(), "data")
	require.NoError(t, err)
	assert.False(t, p.Private())
	assert.Equal(t, 3, p.BlockedSettings)
}

func TestBucketPosture_Error(t *testing.T) {
	mock := postureMock(true)
	mock.getBucketEncryptionFunc = func(ctx context.Context, params *awss3.GetBucketEncryptionInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketEncryptionOutput, error) {
		return nil, errors.New("AccessDenied")
	}
	_, err := NewClient(mock).BucketPosture(context.Background(), "data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GetBucketEncryption")
}
