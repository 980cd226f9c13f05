package iam

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
)

type IAMAPI interface {
	ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

type AttachedPolicy struct {
	Name string
	ARN  string
}

func (c *Client) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]AttachedPolicy, error) {
	var policies []AttachedPolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAttachedRolePolicies(%s): %w", roleName, err)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, AttachedPolicy{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

// PolicyNames joins the names of the policies for display.
func PolicyNames(policies []AttachedPolicy) string {
	names := make([]string, len(policies))
	for i, p := range policies {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
