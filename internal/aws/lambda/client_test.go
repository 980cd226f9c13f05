package lambda

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLambdaAPI struct {
	getFunctionFunc func(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error)
}

func (m *mockLambdaAPI) GetFunction(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error) {
	return m.getFunctionFunc(ctx, params, optFns...)
}

func TestGetFunction(t *testing.T) {
	mock := &mockLambdaAPI{
		getFunctionFunc: func(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error) {
			assert.Equal(t, "nfm-dev-authlambda", awssdk.ToString(params.FunctionName))
			return &awslambda.GetFunctionOutput{
				Configuration: &lambdatypes.FunctionConfiguration{
					FunctionName:     awssdk.String("nfm-dev-authlambda"),
					State:            lambdatypes.StateActive,
					LastUpdateStatus: lambdatypes.LastUpdateStatusSuccessful,
					Runtime:          lambdatypes.RuntimeProvidedal2023,
					CodeSha256:       awssdk.String("abc="),
				},
			}, nil
		},
	}

	fn, err := NewClient(mock).GetFunction(context.Background(), "nfm-dev-authlambda")
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.True(t, fn.Ready())
	assert.Equal(t, "provided.al2023", fn.Runtime)
	assert.Equal(t, "abc=", fn.CodeSHA256)
}

func TestGetFunction_Pending(t *testing.T) {
	mock := &mockLambdaAPI{
		getFunctionFunc: func(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error) {
			return &awslambda.GetFunctionOutput{
				Configuration: &lambdatypes.FunctionConfiguration{
					State:       lambdatypes.StatePending,
					StateReason: awssdk.String("creating"),
				},
			}, nil
		},
	}
	fn, err := NewClient(mock).GetFunction(context.Background(), "f")
	require.NoError(t, err)
	assert.False(t, fn.Ready())
	assert.Equal(t, "creating", fn.StateReason)
}

func TestGetFunction_NotFound(t *testing.T) {
	mock := &mockLambdaAPI{
		getFunctionFunc: func(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error) {
			return nil, &lambdatypes.ResourceNotFoundException{Message: awssdk.String("gone")}
		},
	}
	fn, err := NewClient(mock).GetFunction(context.Background(), "f")
	require.NoError(t, err)
	assert.Nil(t, fn)
}

func TestGetFunction_Error(t *testing.T) {
	mock := &mockLambdaAPI{
		getFunctionFunc: func(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	_, err := NewClient(mock).GetFunction(context.Background(), "f")
	assert.ErrorContains(t, err, "GetFunction(f)")
}
