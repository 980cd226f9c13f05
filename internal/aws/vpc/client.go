package vpc

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type VPCAPI interface {
	DescribeVpcs(ctx context.Context, params *awsec2.DescribeVpcsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, params *awsec2.DescribeSubnetsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSubnetsOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *awsec2.DescribeSecurityGroupsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSecurityGroupsOutput, error)
}

// SubnetTypeTag is the category tag the construct library puts on every subnet.
const SubnetTypeTag = "aws-cdk:subnet-type"

type Client struct {
	api VPCAPI
}

func NewClient(api VPCAPI) *Client {
	return &Client{api: api}
}

func tagValue(tags []types.Tag, key string) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == key {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

func (c *Client) DescribeVPC(ctx context.Context, vpcID string) (*VPCInfo, error) {
	out, err := c.api.DescribeVpcs(ctx, &awsec2.DescribeVpcsInput{VpcIds: []string{vpcID}})
	if err != nil {
		return nil, fmt.Errorf("DescribeVpcs: %w", err)
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("vpc not found: %s", vpcID)
	}
	v := out.Vpcs[0]
	return &VPCInfo{
		VPCID: aws.ToString(v.VpcId),
		Name:  tagValue(v.Tags, "Name"),
		CIDR:  aws.ToString(v.CidrBlock),
		State: string(v.State),
	}, nil
}

// ListSubnets returns the VPC's subnets sorted by type, then zone.
func (c *Client) ListSubnets(ctx context.Context, vpcID string) ([]SubnetInfo, error) {
	var subnets []SubnetInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeSubnets(ctx, &awsec2.DescribeSubnetsInput{
			Filters: []types.Filter{
				{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSubnets: %w", err)
		}

		for _, s := range out.Subnets {
			subnets = append(subnets, SubnetInfo{
				SubnetID:     aws.ToString(s.SubnetId),
				Name:         tagValue(s.Tags, "Name"),
				Type:         tagValue(s.Tags, SubnetTypeTag),
				CIDR:         aws.ToString(s.CidrBlock),
				AZ:           aws.ToString(s.AvailabilityZone),
				AvailableIPs: int(aws.ToInt32(s.AvailableIpAddressCount)),
				MapPublicIP:  aws.ToBool(s.MapPublicIpOnLaunch),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Slice(subnets, func(i, j int) bool {
		if subnets[i].Type != subnets[j].Type {
			return subnets[i].Type < subnets[j].Type
		}
		return subnets[i].AZ < subnets[j].AZ
	})
	return subnets, nil
}

func (c *Client) ListSecurityGroups(ctx context.Context, vpcID string) ([]SecurityGroupInfo, error) {
	var sgs []SecurityGroupInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeSecurityGroups(ctx, &awsec2.DescribeSecurityGroupsInput{
			Filters: []types.Filter{
				{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSecurityGroups: %w", err)
		}

		for _, g := range out.SecurityGroups {
			info := SecurityGroupInfo{
				GroupID:     aws.ToString(g.GroupId),
				Name:        tagValue(g.Tags, "Name"),
				Description: aws.ToString(g.Description),
			}
			for _, p := range g.IpPermissions {
				info.Ingress = append(info.Ingress, ruleFrom(p))
			}
			sgs = append(sgs, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return sgs, nil
}

func ruleFrom(p types.IpPermission) Rule {
	r := Rule{
		Protocol: NormalizeProtocol(aws.ToString(p.IpProtocol)),
		FromPort: int(aws.ToInt32(p.FromPort)),
		ToPort:   int(aws.ToInt32(p.ToPort)),
	}
	for _, ip := range p.IpRanges {
		r.CIDRs = append(r.CIDRs, aws.ToString(ip.CidrIp))
	}
	for _, ip := range p.Ipv6Ranges {
		r.CIDRs = append(r.CIDRs, aws.ToString(ip.CidrIpv6))
	}
	for _, pair := range p.UserIdGroupPairs {
		r.PeerGroups = append(r.PeerGroups, aws.ToString(pair.GroupId))
	}
	return r
}
