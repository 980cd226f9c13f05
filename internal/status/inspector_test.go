package status

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrD1360/fargate-vpc-stack/internal/aws/autoscaling"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/ecr"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/ecs"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/elb"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/iam"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/lambda"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/s3"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/vpc"
	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
)

type mockStackReader struct {
	stackFunc     func(ctx context.Context, name string) (*cftypes.Stack, error)
	outputsFunc   func(ctx context.Context, name string) (map[string]string, error)
	resourcesFunc func(ctx context.Context, name string) ([]deploy.Resource, error)
}

func (m *mockStackReader) Stack(ctx context.Context, name string) (*cftypes.Stack, error) {
	return m.stackFunc(ctx, name)
}
func (m *mockStackReader) Outputs(ctx context.Context, name string) (map[string]string, error) {
	return m.outputsFunc(ctx, name)
}
func (m *mockStackReader) Resources(ctx context.Context, name string) ([]deploy.Resource, error) {
	return m.resourcesFunc(ctx, name)
}

type mockNetworkReader struct {
	vpc     *vpc.VPCInfo
	subnets []vpc.SubnetInfo
	groups  []vpc.SecurityGroupInfo
	err     error
}

func (m *mockNetworkReader) DescribeVPC(ctx context.Context, vpcID string) (*vpc.VPCInfo, error) {
	return m.vpc, m.err
}
func (m *mockNetworkReader) ListSubnets(ctx context.Context, vpcID string) ([]vpc.SubnetInfo, error) {
	return m.subnets, nil
}
func (m *mockNetworkReader) ListSecurityGroups(ctx context.Context, vpcID string) ([]vpc.SecurityGroupInfo, error) {
	return m.groups, nil
}

type mockServiceReader struct {
	describeServiceFunc func(ctx context.Context, clusterName, serviceName string) (*ecs.ServiceStatus, error)
}

func (m *mockServiceReader) DescribeService(ctx context.Context, clusterName, serviceName string) (*ecs.ServiceStatus, error) {
	return m.describeServiceFunc(ctx, clusterName, serviceName)
}

type mockScalingReader struct{}

func (mockScalingReader) ServiceScaling(ctx context.Context, clusterName, serviceName string) (*autoscaling.ServiceScaling, error) {
	return &autoscaling.ServiceScaling{}, nil
}

type mockLoadBalancerReader struct {
	targets []elb.Target
}

func (m *mockLoadBalancerReader) DescribeLoadBalancer(ctx context.Context, lbARN string) (*elb.LoadBalancer, error) {
	return &elb.LoadBalancer{Name: "nfm-dev-frontALB", ARN: lbARN, State: "active", DNSName: "front.example"}, nil
}
func (m *mockLoadBalancerReader) ListListeners(ctx context.Context, lbARN string) ([]elb.Listener, error) {
	return []elb.Listener{{Port: 80, Protocol: "HTTP", DefaultAction: "forward → nfm-dev-fargatetargate"}}, nil
}
func (m *mockLoadBalancerReader) TargetHealth(ctx context.Context, targetGroupARN string) ([]elb.Target, error) {
	return m.targets, nil
}

type mockBucketReader struct{ posture *s3.Posture }

func (m *mockBucketReader) BucketPosture(ctx context.Context, bucket string) (*s3.Posture, error) {
	return m.posture, nil
}

type mockFunctionReader struct{ fn *lambda.FunctionInfo }

func (m *mockFunctionReader) GetFunction(ctx context.Context, name string) (*lambda.FunctionInfo, error) {
	return m.fn, nil
}

type mockImageReader struct {
	findImageFunc func(ctx context.Context, repo, tag string) (*ecr.Image, error)
}

func (m *mockImageReader) FindImage(ctx context.Context, repo, tag string) (*ecr.Image, error) {
	return m.findImageFunc(ctx, repo, tag)
}

type mockRoleReader struct{}

func (mockRoleReader) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]iam.AttachedPolicy, error) {
	return []iam.AttachedPolicy{{Name: "AmazonEC2ContainerRegistryReadOnly"}}, nil
}

func composed(t *testing.T) *topology.Stack {
	t.Helper()
	cfg := &config.StackConfig{Project: "nfm", EnvName: "dev", Env: "dev"}
	cfg.ApplyDefaults()
	s, err := topology.Compose(cfg)
	require.NoError(t, err)
	return s
}

func deployedStacks() *mockStackReader {
	return &mockStackReader{
		stackFunc: func(ctx context.Context, name string) (*cftypes.Stack, error) {
			return &cftypes.Stack{StackName: awssdk.String(name), StackStatus: cftypes.StackStatusCreateComplete}, nil
		},
		outputsFunc: func(ctx context.Context, name string) (map[string]string, error) {
			return map[string]string{
				topology.OutputVPCID:            "vpc-1",
				topology.OutputClusterName:      "nfm-dev-ecsCluster",
				topology.OutputServiceName:      "nfm-dev-FargateService",
				topology.OutputDataBucket:       "nfm-dev-data-storage",
				topology.OutputAuthFunctionName: "nfm-dev-authlambda",
			}, nil
		},
		resourcesFunc: func(ctx context.Context, name string) ([]deploy.Resource, error) {
			return []deploy.Resource{
				{LogicalID: topology.IDAppSG, PhysicalID: "sg-app", Status: "CREATE_COMPLETE"},
				{LogicalID: topology.IDDataSG, PhysicalID: "sg-data", Status: "CREATE_COMPLETE"},
				{LogicalID: topology.IDLoadBalancer, PhysicalID: "arn:lb", Status: "CREATE_COMPLETE"},
				{LogicalID: topology.IDTargetGroup, PhysicalID: "arn:tg", Status: "CREATE_COMPLETE"},
				{LogicalID: topology.IDTaskRole, PhysicalID: "nfm-dev-task_role_fargate", Status: "CREATE_COMPLETE"},
			}, nil
		},
	}
}

func healthyInspector() *Inspector {
	in := NewInspector(zerolog.Nop())
	in.Stacks = deployedStacks()
	in.Network = &mockNetworkReader{
		vpc: &vpc.VPCInfo{VPCID: "vpc-1", State: "available", CIDR: "10.0.0.0/24"},
		subnets: []vpc.SubnetInfo{
			{SubnetID: "subnet-a", Type: "Isolated", AZ: "eu-west-1a"},
			{SubnetID: "subnet-b", Type: "Isolated", AZ: "eu-west-1b"},
			{SubnetID: "subnet-c", Type: "Public", AZ: "eu-west-1a", MapPublicIP: true},
			{SubnetID: "subnet-d", Type: "Public", AZ: "eu-west-1b", MapPublicIP: true},
		},
		groups: []vpc.SecurityGroupInfo{
			{GroupID: "sg-app", Name: "app", Ingress: []vpc.Rule{{Protocol: "TCP", FromPort: 80, ToPort: 80, PeerGroups: []string{"sg-edge"}}}},
			{GroupID: "sg-data", Name: "data", Ingress: []vpc.Rule{{Protocol: "TCP", FromPort: 27017, ToPort: 27017, PeerGroups: []string{"sg-app"}}}},
			{GroupID: "sg-edge", Name: "edge", Ingress: []vpc.Rule{{Protocol: "TCP", FromPort: 443, ToPort: 443, CIDRs: []string{"0.0.0.0/0"}}}},
		},
	}
	in.Services = &mockServiceReader{
		describeServiceFunc: func(ctx context.Context, clusterName, serviceName string) (*ecs.ServiceStatus, error) {
			return &ecs.ServiceStatus{Name: serviceName, DesiredCount: 1, RunningCount: 1, AssignPublicIP: "DISABLED", TaskDef: "fargateTaskDef:3"}, nil
		},
	}
	in.Scaling = mockScalingReader{}
	in.Balancers = &mockLoadBalancerReader{targets: []elb.Target{{ID: "10.0.0.200", State: "healthy"}}}
	in.Buckets = &mockBucketReader{posture: &s3.Posture{PublicAccessOff: true, BlockedSettings: 4, Encryption: "AES256", ObjectOwnership: "BucketOwnerEnforced"}}
	in.Functions = &mockFunctionReader{fn: &lambda.FunctionInfo{Name: "nfm-dev-authlambda", State: "Active"}}
	in.Roles = mockRoleReader{}
	return in
}

func find(r *Report, component, resource string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Component == component && c.Resource == resource {
			return c, true
		}
	}
	return Check{}, false
}

func TestInspect_NotDeployed(t *testing.T) {
	in := NewInspector(zerolog.Nop())
	in.Stacks = &mockStackReader{
		stackFunc: func(ctx context.Context, name string) (*cftypes.Stack, error) { return nil, nil },
	}

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)
	assert.Equal(t, NotDeployed, r.StackStatus)
	assert.Empty(t, r.Checks)
	assert.False(t, r.Healthy())
}

func TestInspect_Healthy(t *testing.T) {
	r, err := healthyInspector().Inspect(context.Background(), composed(t), "nginx:latest")
	require.NoError(t, err)

	assert.Equal(t, "CREATE_COMPLETE", r.StackStatus)
	assert.True(t, r.Healthy(), "%+v", r.Checks)

	subnets, ok := find(r, "network", "subnets")
	require.True(t, ok)
	assert.Equal(t, "2 public, 2 isolated", subnets.State)

	data, ok := find(r, "security", "data")
	require.True(t, ok)
	assert.Equal(t, "peer-only", data.State)
	_, ok = find(r, "security", "edge")
	assert.False(t, ok, "edge group is expected to be open and is not graded")

	svc, ok := find(r, "compute", "nfm-dev-FargateService")
	require.True(t, ok)
	assert.Equal(t, "1/1 running", svc.State)

	scaling, ok := find(r, "compute", "scaling")
	require.True(t, ok)
	assert.Equal(t, "fixed desired count", scaling.State)

	_, ok = find(r, "image", "nginx:latest")
	assert.False(t, ok, "public images are not looked up")
}

func TestInspect_OpenDataGroupFails(t *testing.T) {
	in := healthyInspector()
	net := in.Network.(*mockNetworkReader)
	net.groups[1].Ingress = append(net.groups[1].Ingress, vpc.Rule{Protocol: "TCP", FromPort: 27017, ToPort: 27017, CIDRs: []string{"0.0.0.0/0"}})

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)
	c, ok := find(r, "security", "data")
	require.True(t, ok)
	assert.Equal(t, LevelFail, c.Level)
	assert.Equal(t, "TCP/27017 from 0.0.0.0/0", c.Detail)
	assert.False(t, r.Healthy())
}

func TestInspect_PublicIsolatedSubnetFails(t *testing.T) {
	in := healthyInspector()
	in.Network.(*mockNetworkReader).subnets[0].MapPublicIP = true

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)
	c, ok := find(r, "network", "subnet-a")
	require.True(t, ok)
	assert.Equal(t, LevelFail, c.Level)
}

func TestInspect_SubnetLayout(t *testing.T) {
	tests := map[string]struct {
		subnets []vpc.SubnetInfo
		state   string
	}{
		"one of each": {
			subnets: []vpc.SubnetInfo{
				{SubnetID: "subnet-a", Type: "Isolated", AZ: "eu-west-1a"},
				{SubnetID: "subnet-c", Type: "Public", AZ: "eu-west-1a"},
			},
			state: "1 public, 1 isolated",
		},
		"same zone": {
			subnets: []vpc.SubnetInfo{
				{SubnetID: "subnet-a", Type: "Isolated", AZ: "eu-west-1a"},
				{SubnetID: "subnet-b", Type: "Isolated", AZ: "eu-west-1a"},
				{SubnetID: "subnet-c", Type: "Public", AZ: "eu-west-1a"},
				{SubnetID: "subnet-d", Type: "Public", AZ: "eu-west-1b"},
			},
			state: "2 public, 2 isolated",
		},
		"extra public": {
			subnets: []vpc.SubnetInfo{
				{SubnetID: "subnet-a", Type: "Isolated", AZ: "eu-west-1a"},
				{SubnetID: "subnet-b", Type: "Isolated", AZ: "eu-west-1b"},
				{SubnetID: "subnet-c", Type: "Public", AZ: "eu-west-1a"},
				{SubnetID: "subnet-d", Type: "Public", AZ: "eu-west-1b"},
				{SubnetID: "subnet-e", Type: "Public", AZ: "eu-west-1c"},
			},
			state: "3 public, 2 isolated",
		},
		"no isolated": {
			subnets: []vpc.SubnetInfo{
				{SubnetID: "subnet-c", Type: "Public", AZ: "eu-west-1a"},
				{SubnetID: "subnet-d", Type: "Public", AZ: "eu-west-1b"},
			},
			state: "2 public, 0 isolated",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := healthyInspector()
			in.Network.(*mockNetworkReader).subnets = tt.subnets

			r, err := in.Inspect(context.Background(), composed(t), "")
			require.NoError(t, err)
			c, ok := find(r, "network", "subnets")
			require.True(t, ok)
			assert.Equal(t, LevelFail, c.Level)
			assert.Equal(t, tt.state, c.State)
			assert.Contains(t, c.Detail, "distinct zones")
			assert.False(t, r.Healthy())
		})
	}
}

func TestInspect_ReaderErrorsBecomeChecks(t *testing.T) {
	in := healthyInspector()
	in.Network = &mockNetworkReader{err: errors.New("UnauthorizedOperation")}
	in.Services = &mockServiceReader{
		describeServiceFunc: func(ctx context.Context, clusterName, serviceName string) (*ecs.ServiceStatus, error) {
			return nil, errors.New("ClusterNotFoundException")
		},
	}

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)

	c, ok := find(r, "network", "vpc-1")
	require.True(t, ok)
	assert.Equal(t, LevelFail, c.Level)
	assert.Equal(t, "UnauthorizedOperation", c.Detail)

	c, ok = find(r, "compute", "nfm-dev-FargateService")
	require.True(t, ok)
	assert.Equal(t, "error", c.State)
}

func TestInspect_UnhealthyTargetsWarn(t *testing.T) {
	in := healthyInspector()
	in.Balancers = &mockLoadBalancerReader{targets: []elb.Target{{State: "healthy"}, {State: "unhealthy"}}}

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)
	c, ok := find(r, "edge", "targets")
	require.True(t, ok)
	assert.Equal(t, LevelWarn, c.Level)
	assert.Equal(t, "1/2 healthy", c.State)
	assert.True(t, r.Healthy(), "warnings do not fail the report")
}

func TestInspect_PrivateImage(t *testing.T) {
	image := "123456789012.dkr.ecr.eu-west-1.amazonaws.com/app:v3"

	in := healthyInspector()
	in.Images = &mockImageReader{
		findImageFunc: func(ctx context.Context, repo, tag string) (*ecr.Image, error) {
			assert.Equal(t, "app", repo)
			assert.Equal(t, "v3", tag)
			return nil, nil
		},
	}

	r, err := in.Inspect(context.Background(), composed(t), image)
	require.NoError(t, err)
	c, ok := find(r, "image", "app:v3")
	require.True(t, ok)
	assert.Equal(t, LevelWarn, c.Level)
	assert.Equal(t, "not pushed", c.State)
}

func TestInspect_FailedResourcesReported(t *testing.T) {
	in := NewInspector(zerolog.Nop())
	stacks := deployedStacks()
	stacks.resourcesFunc = func(ctx context.Context, name string) ([]deploy.Resource, error) {
		return []deploy.Resource{{LogicalID: "Service", Status: "CREATE_FAILED", Reason: "tasks failed to start"}}, nil
	}
	in.Stacks = stacks

	r, err := in.Inspect(context.Background(), composed(t), "")
	require.NoError(t, err)
	c, ok := find(r, "stack", "Service")
	require.True(t, ok)
	assert.Equal(t, "tasks failed to start", c.Detail)
	assert.False(t, r.Healthy())
}

func TestInspect_StackError(t *testing.T) {
	in := NewInspector(zerolog.Nop())
	in.Stacks = &mockStackReader{
		stackFunc: func(ctx context.Context, name string) (*cftypes.Stack, error) {
			return nil, errors.New("DescribeStacks: throttled")
		},
	}
	_, err := in.Inspect(context.Background(), composed(t), "")
	assert.Error(t, err)
}
