package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
)

// Compute is the handle returned by BuildCompute.
type Compute struct {
	Cluster        string
	TaskRole       string
	TaskDefinition string
	Service        string

	ContainerName string
	ContainerPort int

	cluster awsecs.Cluster
	service awsecs.FargateService
}

// taskRolePolicy is the only permission the tasks are granted.
const taskRolePolicy = "AmazonEC2ContainerRegistryReadOnly"

// BuildCompute declares the cluster, the task role, the Fargate task
// definition and a service running it in the isolated subnets under the
// application group.
func BuildCompute(scope awscdk.Stack, names Names, net Network, sg SecurityGroups, cfg config.ComputeConfig) Compute {
	c := Compute{
		ContainerName: names.Physical(SuffixContainer),
		ContainerPort: cfg.ContainerPort,
	}

	c.cluster = awsecs.NewCluster(scope, jsii.String(IDCluster), &awsecs.ClusterProps{
		Vpc:         net.vpc,
		ClusterName: names.physical(SuffixCluster),
	})
	names.nameTag(c.cluster, SuffixCluster)
	c.Cluster = pin(c.cluster, IDCluster)

	role := awsiam.NewRole(scope, jsii.String(IDTaskRole), &awsiam.RoleProps{
		RoleName:    names.physical(SuffixTaskRole),
		Description: jsii.String("task role"),
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String(taskRolePolicy)),
		},
	})
	names.nameTag(role, SuffixTaskRole)
	c.TaskRole = pin(role, IDTaskRole)

	// The task role doubles as the execution role so image pulls use the same grant.
	td := awsecs.NewFargateTaskDefinition(scope, jsii.String(IDTaskDefinition), &awsecs.FargateTaskDefinitionProps{
		Family:         names.physical(SuffixTaskDefinition),
		Cpu:            jsii.Number(float64(cfg.CPU)),
		MemoryLimitMiB: jsii.Number(float64(cfg.MemoryMiB)),
		TaskRole:       role,
		ExecutionRole:  role,
	})
	td.AddContainer(jsii.String(SuffixContainer), &awsecs.ContainerDefinitionOptions{
		ContainerName: jsii.String(c.ContainerName),
		Image:         awsecs.ContainerImage_FromRegistry(jsii.String(cfg.Image), nil),
		Essential:     jsii.Bool(true),
		PortMappings: &[]*awsecs.PortMapping{
			{ContainerPort: jsii.Number(float64(cfg.ContainerPort)), Protocol: awsecs.Protocol_TCP},
		},
	})
	c.TaskDefinition = pin(td, IDTaskDefinition)

	c.service = awsecs.NewFargateService(scope, jsii.String(IDService), &awsecs.FargateServiceProps{
		Cluster:        c.cluster,
		TaskDefinition: td,
		ServiceName:    names.physical(SuffixService),
		DesiredCount:   jsii.Number(float64(cfg.Replicas())),
		AssignPublicIp: jsii.Bool(false),
		VpcSubnets:     isolatedSubnets(),
		SecurityGroups: &[]awsec2.ISecurityGroup{sg.app},
	})
	c.Service = pin(c.service, IDService, "Service")

	return c
}
