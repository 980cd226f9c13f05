package topology

import (
	"net/netip"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
	"github.com/MrD1360/fargate-vpc-stack/internal/stack"
)

// SecurityGroups is the handle returned by BuildSecurity.
type SecurityGroups struct {
	Endpoint string
	Edge     string
	App      string
	Data     string

	// AppPort is the port the edge group may reach the application group on.
	AppPort int
	// InterfaceEndpoints are the private endpoints for registry and secrets access.
	InterfaceEndpoints []string

	edge, app, data awsec2.SecurityGroup
}

// GroupID returns the Fn::GetAtt for a group's ID.
func GroupID(logicalID string) map[string]any {
	return stack.GetAtt(logicalID, "GroupId")
}

// BuildSecurity declares the traffic groups and the allow rules between
// them. The edge group admits only the configured range on 443; the data
// group admits only the application group.
func BuildSecurity(scope awscdk.Stack, names Names, net Network, cfg config.SecurityConfig, appPort int) SecurityGroups {
	group := func(id, suffix, description string) awsec2.SecurityGroup {
		g := awsec2.NewSecurityGroup(scope, jsii.String(id), &awsec2.SecurityGroupProps{
			Vpc:               net.vpc,
			SecurityGroupName: names.physical(suffix),
			Description:       jsii.String(description),
			AllowAllOutbound:  jsii.Bool(true),
		})
		names.nameTag(g, suffix)
		pin(g, id)
		return g
	}

	endpoint := group(IDEndpointSG, SuffixEndpointSG, "Interface VPC endpoints")
	edge := group(IDEdgeSG, SuffixEdgeSG, "Internet-facing load balancer")
	app := group(IDAppSG, SuffixAppSG, "Application service tasks")
	data := group(IDDataSG, SuffixDataSG, "Data tier")

	for _, port := range []int{constants.HTTPSPort, constants.HTTPPort} {
		endpoint.AddIngressRule(awsec2.Peer_AnyIpv4(), tcp(port), jsii.String("endpoint clients"), jsii.Bool(false))
	}
	edge.AddIngressRule(ingressPeer(cfg.IngressCIDR), tcp(constants.HTTPSPort), jsii.String("allowed clients"), jsii.Bool(false))
	app.Connections().AllowFrom(edge, tcp(appPort), jsii.String("load balancer to tasks"))
	data.Connections().AllowFrom(app, tcp(constants.DocumentDBPort), jsii.String("tasks to document store"))

	sg := SecurityGroups{
		Endpoint: IDEndpointSG,
		Edge:     IDEdgeSG,
		App:      IDAppSG,
		Data:     IDDataSG,
		AppPort:  appPort,
		edge:     edge,
		app:      app,
		data:     data,
	}

	for _, ep := range []struct {
		id      string
		service awsec2.InterfaceVpcEndpointAwsService
		suffix  string
	}{
		{IDECRAPIEndpoint, awsec2.InterfaceVpcEndpointAwsService_ECR(), SuffixECRAPIEndpoint},
		{IDECRDkrEndpoint, awsec2.InterfaceVpcEndpointAwsService_ECR_DOCKER(), SuffixECRDkrEndpoint},
		{IDSecretsEndpoint, awsec2.InterfaceVpcEndpointAwsService_SECRETS_MANAGER(), SuffixSecretsEndpoint},
	} {
		e := awsec2.NewInterfaceVpcEndpoint(scope, jsii.String(ep.id), &awsec2.InterfaceVpcEndpointProps{
			Vpc:               net.vpc,
			Service:           ep.service,
			PrivateDnsEnabled: jsii.Bool(true),
			Subnets:           isolatedSubnets(),
			SecurityGroups:    &[]awsec2.ISecurityGroup{endpoint},
			Open:              jsii.Bool(false),
		})
		names.nameTag(e, ep.suffix)
		sg.InterfaceEndpoints = append(sg.InterfaceEndpoints, pin(e, ep.id))
	}

	return sg
}

func tcp(port int) awsec2.Port {
	return awsec2.Port_Tcp(jsii.Number(float64(port)))
}

// ingressPeer picks the rule family for a prefix. An IPv6 range lands in
// CidrIpv6; CidrIp would reject it.
func ingressPeer(cidr string) awsec2.IPeer {
	if p, err := netip.ParsePrefix(cidr); err == nil && p.Addr().Is6() {
		return awsec2.Peer_Ipv6(jsii.String(cidr))
	}
	return awsec2.Peer_Ipv4(jsii.String(cidr))
}
