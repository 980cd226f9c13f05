package ecs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/MrD1360/fargate-vpc-stack/internal/utils"
)

type ECSAPI interface {
	DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error)
}

type Client struct {
	api ECSAPI
}

func NewClient(api ECSAPI) *Client {
	return &Client{api: api}
}

// DescribeService returns the service's counts, placement and recent events.
func (c *Client) DescribeService(ctx context.Context, clusterName, serviceName string) (*ServiceStatus, error) {
	out, err := c.api.DescribeServices(ctx, &awsecs.DescribeServicesInput{
		Cluster:  aws.String(clusterName),
		Services: []string{serviceName},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeServices: %w", err)
	}
	if len(out.Services) == 0 {
		return nil, fmt.Errorf("service not found: %s", serviceName)
	}

	svc := out.Services[0]
	status := &ServiceStatus{
		Name:         aws.ToString(svc.ServiceName),
		Status:       aws.ToString(svc.Status),
		DesiredCount: int(svc.DesiredCount),
		RunningCount: int(svc.RunningCount),
		PendingCount: int(svc.PendingCount),
		TaskDef:      utils.ShortName(aws.ToString(svc.TaskDefinition)),
		LaunchType:   string(svc.LaunchType),
	}

	if nc := svc.NetworkConfiguration; nc != nil && nc.AwsvpcConfiguration != nil {
		status.Subnets = nc.AwsvpcConfiguration.Subnets
		status.SecurityGroups = nc.AwsvpcConfiguration.SecurityGroups
		status.AssignPublicIP = string(nc.AwsvpcConfiguration.AssignPublicIp)
	}

	for _, d := range svc.Deployments {
		if aws.ToString(d.Status) == "PRIMARY" {
			status.RolloutState = string(d.RolloutState)
			status.RolloutReason = aws.ToString(d.RolloutStateReason)
		}
	}

	for _, lb := range svc.LoadBalancers {
		status.TargetGroups = append(status.TargetGroups, aws.ToString(lb.TargetGroupArn))
	}

	// Events are newest first.
	for i, e := range svc.Events {
		if i == maxEvents {
			break
		}
		var createdAt time.Time
		if e.CreatedAt != nil {
			createdAt = *e.CreatedAt
		}
		status.Events = append(status.Events, ServiceEvent{
			CreatedAt: createdAt,
			Message:   aws.ToString(e.Message),
		})
	}

	return status, nil
}

const maxEvents = 5
