package ecr

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockECRAPI struct {
	describeImagesFunc func(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error)
}

func (m *mockECRAPI) DescribeImages(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error) {
	return m.describeImagesFunc(ctx, params, optFns...)
}

func TestParseImageRef(t *testing.T) {
	tests := []struct {
		in   string
		want ImageRef
	}{
		{"nginx", ImageRef{Repository: "nginx", Tag: "latest"}},
		{"library/nginx:1.27", ImageRef{Repository: "library/nginx", Tag: "1.27"}},
		{
			"123456789012.dkr.ecr.eu-west-1.amazonaws.com/app:v3",
			ImageRef{Registry: "123456789012.dkr.ecr.eu-west-1.amazonaws.com", Repository: "app", Tag: "v3"},
		},
		{"localhost:5000/app", ImageRef{Registry: "localhost:5000", Repository: "app", Tag: "latest"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImageRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseImageRef("")
	assert.Error(t, err)
}

func TestImageRef_Private(t *testing.T) {
	ref, err := ParseImageRef("123456789012.dkr.ecr.eu-west-1.amazonaws.com/app:v3")
	require.NoError(t, err)
	assert.True(t, ref.Private())

	ref, err = ParseImageRef("nginx:latest")
	require.NoError(t, err)
	assert.False(t, ref.Private())
}

func TestFindImage(t *testing.T) {
	pushed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock := &mockECRAPI{
		describeImagesFunc: func(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error) {
			assert.Equal(t, "app", awssdk.ToString(params.RepositoryName))
			require.Len(t, params.ImageIds, 1)
			assert.Equal(t, "v3", awssdk.ToString(params.ImageIds[0].ImageTag))
			return &awsecr.DescribeImagesOutput{
				ImageDetails: []ecrtypes.ImageDetail{{
					ImageDigest:      awssdk.String("sha256:abcdef0123456789abcdef"),
					ImagePushedAt:    &pushed,
					ImageSizeInBytes: awssdk.Int64(2 * 1024 * 1024),
				}},
			}, nil
		},
	}

	img, err := NewClient(mock).FindImage(context.Background(), "app", "v3")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "sha256:abcdef012345", img.Digest)
	assert.InDelta(t, 2.0, img.SizeMB, 0.001)
	assert.Equal(t, pushed, img.PushedAt)
}

func TestFindImage_NotFound(t *testing.T) {
	for name, apiErr := range map[string]error{
		"image": &ecrtypes.ImageNotFoundException{Message: awssdk.String("no tag")},
		"repo":  &ecrtypes.RepositoryNotFoundException{Message: awssdk.String("no repo")},
	} {
		t.Run(name, func(t *testing.T) {
			mock := &mockECRAPI{
				describeImagesFunc: func(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error) {
					return nil, apiErr
				},
			}
			img, err := NewClient(mock).FindImage(context.Background(), "app", "v3")
			require.NoError(t, err)
			assert.Nil(t, img)
		})
	}
}

func TestFindImage_Error(t *testing.T) {
	mock := &mockECRAPI{
		describeImagesFunc: func(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	_, err := NewClient(mock).FindImage(context.Background(), "app", "v3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DescribeImages")
}
