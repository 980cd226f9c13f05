package ecs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockECSAPI struct {
	describeServicesFunc func(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error)
}

func (m *mockECSAPI) DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error) {
	return m.describeServicesFunc(ctx, params, optFns...)
}

func TestDescribeService(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	var events []ecstypes.ServiceEvent
	for i := range 7 {
		events = append(events, ecstypes.ServiceEvent{
			CreatedAt: &created,
			Message:   awssdk.String(fmt.Sprintf("event %d", i)),
		})
	}

	mock := &mockECSAPI{
		describeServicesFunc: func(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error) {
			assert.Equal(t, "nfm-dev-ecsCluster", awssdk.ToString(params.Cluster))
			assert.Equal(t, []string{"nfm-dev-FargateService"}, params.Services)
			return &awsecs.DescribeServicesOutput{
				Services: []ecstypes.Service{{
					ServiceName:    awssdk.String("nfm-dev-FargateService"),
					Status:         awssdk.String("ACTIVE"),
					DesiredCount:   1,
					RunningCount:   1,
					TaskDefinition: awssdk.String("arn:aws:ecs:eu-west-1:123456789012:task-definition/nfm-dev-fargateTaskDef:3"),
					LaunchType:     ecstypes.LaunchTypeFargate,
					NetworkConfiguration: &ecstypes.NetworkConfiguration{
						AwsvpcConfiguration: &ecstypes.AwsVpcConfiguration{
							Subnets:        []string{"subnet-iso1", "subnet-iso2"},
							SecurityGroups: []string{"sg-app"},
							AssignPublicIp: ecstypes.AssignPublicIpDisabled,
						},
					},
					Deployments: []ecstypes.Deployment{
						{Status: awssdk.String("ACTIVE"), RolloutState: ecstypes.DeploymentRolloutStateFailed},
						{Status: awssdk.String("PRIMARY"), RolloutState: ecstypes.DeploymentRolloutStateCompleted},
					},
					LoadBalancers: []ecstypes.LoadBalancer{{TargetGroupArn: awssdk.String("arn:tg")}},
					Events:        events,
				}},
			}, nil
		},
	}

	s, err := NewClient(mock).DescribeService(context.Background(), "nfm-dev-ecsCluster", "nfm-dev-FargateService")
	require.NoError(t, err)
	assert.Equal(t, "nfm-dev-fargateTaskDef:3", s.TaskDef)
	assert.Equal(t, "DISABLED", s.AssignPublicIP)
	assert.Equal(t, []string{"subnet-iso1", "subnet-iso2"}, s.Subnets)
	assert.Equal(t, "COMPLETED", s.RolloutState)
	assert.Equal(t, []string{"arn:tg"}, s.TargetGroups)
	assert.Len(t, s.Events, maxEvents)
	assert.True(t, s.Steady())
}

func TestDescribeService_NotFound(t *testing.T) {
	mock := &mockECSAPI{
		describeServicesFunc: func(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error) {
			return &awsecs.DescribeServicesOutput{}, nil
		},
	}
	_, err := NewClient(mock).DescribeService(context.Background(), "c", "s")
	assert.Error(t, err)
}

func TestDescribeService_Error(t *testing.T) {
	mock := &mockECSAPI{
		describeServicesFunc: func(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error) {
			return nil, errors.New("boom")
		},
	}
	_, err := NewClient(mock).DescribeService(context.Background(), "c", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DescribeServices")
}

func TestServiceStatus_Steady(t *testing.T) {
	assert.False(t, (&ServiceStatus{DesiredCount: 1, RunningCount: 0}).Steady())
	assert.False(t, (&ServiceStatus{DesiredCount: 1, RunningCount: 1, PendingCount: 1}).Steady())
	assert.False(t, (&ServiceStatus{DesiredCount: 1, RunningCount: 1, RolloutState: "IN_PROGRESS"}).Steady())
	assert.True(t, (&ServiceStatus{DesiredCount: 0}).Steady())
}
