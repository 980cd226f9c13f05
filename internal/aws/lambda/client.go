package lambda

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

type LambdaAPI interface {
	GetFunction(ctx context.Context, params *awslambda.GetFunctionInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionOutput, error)
}

type Client struct {
	api LambdaAPI
}

func NewClient(api LambdaAPI) *Client {
	return &Client{api: api}
}

type FunctionInfo struct {
	Name             string
	State            string
	StateReason      string
	LastUpdateStatus string
	Runtime          string
	CodeSHA256       string
	LastModified     string
}

// Ready reports whether the function can be invoked with its latest code.
func (f *FunctionInfo) Ready() bool {
	return f.State == string(lambdatypes.StateActive) &&
		(f.LastUpdateStatus == "" || f.LastUpdateStatus == string(lambdatypes.LastUpdateStatusSuccessful))
}

// GetFunction returns nil when the function does not exist.
func (c *Client) GetFunction(ctx context.Context, name string) (*FunctionInfo, error) {
	out, err := c.api.GetFunction(ctx, &awslambda.GetFunctionInput{FunctionName: aws.String(name)})
	if err != nil {
		var notFound *lambdatypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetFunction(%s): %w", name, err)
	}

	cfg := out.Configuration
	if cfg == nil {
		return &FunctionInfo{Name: name}, nil
	}
	return &FunctionInfo{
		Name:             aws.ToString(cfg.FunctionName),
		State:            string(cfg.State),
		StateReason:      aws.ToString(cfg.StateReason),
		LastUpdateStatus: string(cfg.LastUpdateStatus),
		Runtime:          string(cfg.Runtime),
		CodeSHA256:       aws.ToString(cfg.CodeSha256),
		LastModified:     aws.ToString(cfg.LastModified),
	}, nil
}
