package autoscaling

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	astypes "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
)

type ApplicationAutoScalingAPI interface {
	DescribeScalableTargets(ctx context.Context, params *applicationautoscaling.DescribeScalableTargetsInput, optFns ...func(*applicationautoscaling.Options)) (*applicationautoscaling.DescribeScalableTargetsOutput, error)
	DescribeScalingPolicies(ctx context.Context, params *applicationautoscaling.DescribeScalingPoliciesInput, optFns ...func(*applicationautoscaling.Options)) (*applicationautoscaling.DescribeScalingPoliciesOutput, error)
}

type Client struct {
	api ApplicationAutoScalingAPI
}

func NewClient(api ApplicationAutoScalingAPI) *Client {
	return &Client{api: api}
}

// ServiceScaling describes how the desired count of an ECS service is
// managed. Registered is false when the count is fixed by the stack.
type ServiceScaling struct {
	ResourceID  string
	Registered  bool
	MinCapacity int
	MaxCapacity int
	Policies    []string
}

func (s *ServiceScaling) String() string {
	if !s.Registered {
		return "fixed desired count"
	}
	return fmt.Sprintf("%d-%d tasks, %d policies", s.MinCapacity, s.MaxCapacity, len(s.Policies))
}

func (c *Client) ServiceScaling(ctx context.Context, clusterName, serviceName string) (*ServiceScaling, error) {
	resourceID := fmt.Sprintf("service/%s/%s", clusterName, serviceName)
	out, err := c.api.DescribeScalableTargets(ctx, &applicationautoscaling.DescribeScalableTargetsInput{
		ServiceNamespace:  astypes.ServiceNamespaceEcs,
		ResourceIds:       []string{resourceID},
		ScalableDimension: astypes.ScalableDimensionECSServiceDesiredCount,
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeScalableTargets: %w", err)
	}

	s := &ServiceScaling{ResourceID: resourceID}
	if len(out.ScalableTargets) == 0 {
		return s, nil
	}
	target := out.ScalableTargets[0]
	s.Registered = true
	s.MinCapacity = int(aws.ToInt32(target.MinCapacity))
	s.MaxCapacity = int(aws.ToInt32(target.MaxCapacity))

	pol, err := c.api.DescribeScalingPolicies(ctx, &applicationautoscaling.DescribeScalingPoliciesInput{
		ServiceNamespace:  astypes.ServiceNamespaceEcs,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: astypes.ScalableDimensionECSServiceDesiredCount,
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeScalingPolicies: %w", err)
	}
	for _, p := range pol.ScalingPolicies {
		s.Policies = append(s.Policies, aws.ToString(p.PolicyName))
	}
	return s, nil
}
