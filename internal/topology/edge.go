package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
)

// Edge is the handle returned by BuildEdge.
type Edge struct {
	LoadBalancer string
	Listener     string
	TargetGroup  string

	lb elbv2.ApplicationLoadBalancer
}

// BuildEdge declares an internet-facing load balancer in the public subnets
// with a plain HTTP listener forwarding to an IP target group, and registers
// the service's container with that target group. The load balancer waits
// for the public default routes; the service waits for the listener.
func BuildEdge(scope awscdk.Stack, names Names, net Network, sg SecurityGroups, c Compute) Edge {
	lb := elbv2.NewApplicationLoadBalancer(scope, jsii.String(IDLoadBalancer), &elbv2.ApplicationLoadBalancerProps{
		Vpc:              net.vpc,
		InternetFacing:   jsii.Bool(true),
		LoadBalancerName: names.physical(SuffixLoadBalancer),
		SecurityGroup:    sg.edge,
		VpcSubnets:       publicSubnets(),
	})
	names.nameTag(lb, SuffixLoadBalancer)

	// Open stays off: the edge group decides who may connect.
	listener := lb.AddListener(jsii.String(IDListener), &elbv2.BaseApplicationListenerProps{
		Port:     jsii.Number(float64(constants.HTTPPort)),
		Protocol: elbv2.ApplicationProtocol_HTTP,
		Open:     jsii.Bool(false),
	})

	// Target group names are capped at 32 characters, so it is left to the engine.
	c.service.RegisterLoadBalancerTargets(&awsecs.EcsTarget{
		ContainerName:    jsii.String(c.ContainerName),
		ContainerPort:    jsii.Number(float64(c.ContainerPort)),
		NewTargetGroupId: jsii.String(IDTargetGroup),
		Listener: awsecs.ListenerConfig_ApplicationListener(listener, &elbv2.AddApplicationTargetsProps{
			Protocol: elbv2.ApplicationProtocol_HTTP,
			Port:     jsii.Number(float64(c.ContainerPort)),
		}),
	})

	return Edge{
		LoadBalancer: pin(lb, IDLoadBalancer),
		Listener:     pin(listener, IDListener),
		TargetGroup:  pin(listener, IDTargetGroup, IDTargetGroup+"Group"),
		lb:           lb,
	}
}
