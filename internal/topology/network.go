package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
)

// SubnetType is the category a subnet belongs to.
type SubnetType string

const (
	SubnetPublic   SubnetType = "Public"
	SubnetIsolated SubnetType = "Isolated"
)

// SubnetTypeTag is set on every subnet by the construct library.
const SubnetTypeTag = "aws-cdk:subnet-type"

// Network is the handle returned by BuildNetwork.
type Network struct {
	VPC               string
	InternetGateway   string
	GatewayAttachment string
	S3Endpoint        string

	// Indexed by zone.
	PublicSubnets       []string
	IsolatedSubnets     []string
	PublicRouteTables   []string
	IsolatedRouteTables []string
	PublicRoutes        []string

	vpc awsec2.Vpc
}

// Subnets returns the subnets of one category.
func (n Network) Subnets(typ SubnetType) []string {
	if typ == SubnetPublic {
		return n.PublicSubnets
	}
	return n.IsolatedSubnets
}

func isolatedSubnets() *awsec2.SubnetSelection {
	return &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PRIVATE_ISOLATED}
}

func publicSubnets() *awsec2.SubnetSelection {
	return &awsec2.SubnetSelection{SubnetType: awsec2.SubnetType_PUBLIC}
}

// BuildNetwork declares the VPC with one public and one isolated subnet in
// each of two zones. No NAT gateways are created, so only public route
// tables reach the internet gateway.
func BuildNetwork(scope awscdk.Stack, names Names, cfg config.NetworkConfig) Network {
	vpc := awsec2.NewVpc(scope, jsii.String(IDVPC), &awsec2.VpcProps{
		VpcName:                      names.physical(SuffixVPC),
		IpAddresses:                  awsec2.IpAddresses_Cidr(jsii.String(cfg.VPCCIDR)),
		MaxAzs:                       jsii.Number(float64(constants.MaxAZs)),
		NatGateways:                  jsii.Number(0),
		EnableDnsHostnames:           jsii.Bool(true),
		EnableDnsSupport:             jsii.Bool(true),
		RestrictDefaultSecurityGroup: jsii.Bool(false),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{
			{
				Name:       names.physical(SuffixPublicSubnet),
				SubnetType: awsec2.SubnetType_PUBLIC,
				CidrMask:   jsii.Number(float64(constants.SubnetMask)),
			},
			{
				Name:       names.physical(SuffixIsolatedSubnet),
				SubnetType: awsec2.SubnetType_PRIVATE_ISOLATED,
				CidrMask:   jsii.Number(float64(constants.SubnetMask)),
			},
		},
	})

	n := Network{
		VPC:               pin(vpc, IDVPC),
		InternetGateway:   pin(vpc, IDInternetGateway, "IGW"),
		GatewayAttachment: pin(vpc, IDGatewayAttachment, "VPCGW"),
		vpc:               vpc,
	}

	for az, subnet := range *vpc.PublicSubnets() {
		id := zoneID(string(SubnetPublic)+"Subnet", az)
		names.nameTag(subnet, zoneID(SuffixPublicSubnet, az))
		n.PublicSubnets = append(n.PublicSubnets, pin(subnet, id, "Subnet"))
		n.PublicRouteTables = append(n.PublicRouteTables, pin(subnet, zoneID(string(SubnetPublic)+"RouteTable", az), "RouteTable"))
		pin(subnet, id+"RouteTableAssociation", "RouteTableAssociation")
		n.PublicRoutes = append(n.PublicRoutes, pin(subnet, id+"DefaultRoute", "DefaultRoute"))
	}
	for az, subnet := range *vpc.IsolatedSubnets() {
		id := zoneID(string(SubnetIsolated)+"Subnet", az)
		names.nameTag(subnet, zoneID(SuffixIsolatedSubnet, az))
		n.IsolatedSubnets = append(n.IsolatedSubnets, pin(subnet, id, "Subnet"))
		n.IsolatedRouteTables = append(n.IsolatedRouteTables, pin(subnet, zoneID(string(SubnetIsolated)+"RouteTable", az), "RouteTable"))
		pin(subnet, id+"RouteTableAssociation", "RouteTableAssociation")
	}

	// Image layers are served from S3, so isolated tasks need the gateway endpoint.
	s3 := vpc.AddGatewayEndpoint(jsii.String(IDS3Endpoint), &awsec2.GatewayVpcEndpointOptions{
		Service: awsec2.GatewayVpcEndpointAwsService_S3(),
		Subnets: &[]*awsec2.SubnetSelection{isolatedSubnets()},
	})
	names.nameTag(s3, SuffixS3Endpoint)
	n.S3Endpoint = pin(s3, IDS3Endpoint)

	return n
}
