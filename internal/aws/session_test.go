package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSTSAPI struct {
	getCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *mockSTSAPI) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.getCallerIdentityFunc(ctx, params, optFns...)
}

func identity(account string) *mockSTSAPI {
	return &mockSTSAPI{
		getCallerIdentityFunc: func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return &sts.GetCallerIdentityOutput{Account: awssdk.String(account)}, nil
		},
	}
}

func TestCheckAccount(t *testing.T) {
	got, err := CheckAccount(context.Background(), identity("111111111111"), "111111111111")
	require.NoError(t, err)
	assert.Equal(t, "111111111111", got)

	_, err = CheckAccount(context.Background(), identity("111111111111"), "")
	require.NoError(t, err)
}

func TestCheckAccount_Mismatch(t *testing.T) {
	_, err := CheckAccount(context.Background(), identity("111111111111"), "222222222222")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 222222222222")
}

func TestCheckAccount_Error(t *testing.T) {
	mock := &mockSTSAPI{
		getCallerIdentityFunc: func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return nil, errors.New("expired token")
		},
	}
	_, err := CheckAccount(context.Background(), mock, "1")
	assert.ErrorContains(t, err, "GetCallerIdentity")
}
