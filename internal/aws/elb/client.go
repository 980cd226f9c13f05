package elb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/MrD1360/fargate-vpc-stack/internal/utils"
)

type ELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, params *elbv2.DescribeLoadBalancersInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error)
	DescribeListeners(ctx context.Context, params *elbv2.DescribeListenersInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeListenersOutput, error)
	DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error)
}

type Client struct {
	api ELBAPI
}

func NewClient(api ELBAPI) *Client {
	return &Client{api: api}
}

func (c *Client) DescribeLoadBalancer(ctx context.Context, lbARN string) (*LoadBalancer, error) {
	out, err := c.api.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{
		LoadBalancerArns: []string{lbARN},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeLoadBalancers: %w", err)
	}
	if len(out.LoadBalancers) == 0 {
		return nil, fmt.Errorf("load balancer not found: %s", lbARN)
	}

	lb := out.LoadBalancers[0]
	var state, reason string
	if lb.State != nil {
		state = string(lb.State.Code)
		reason = aws.ToString(lb.State.Reason)
	}
	var subnets []string
	for _, az := range lb.AvailabilityZones {
		subnets = append(subnets, aws.ToString(az.SubnetId))
	}
	return &LoadBalancer{
		Name:           aws.ToString(lb.LoadBalancerName),
		ARN:            aws.ToString(lb.LoadBalancerArn),
		State:          state,
		StateReason:    reason,
		Scheme:         string(lb.Scheme),
		DNSName:        aws.ToString(lb.DNSName),
		Subnets:        subnets,
		SecurityGroups: lb.SecurityGroups,
	}, nil
}

func (c *Client) ListListeners(ctx context.Context, lbARN string) ([]Listener, error) {
	var listeners []Listener
	var marker *string

	for {
		out, err := c.api.DescribeListeners(ctx, &elbv2.DescribeListenersInput{
			LoadBalancerArn: aws.String(lbARN),
			Marker:          marker,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeListeners: %w", err)
		}

		for _, l := range out.Listeners {
			listeners = append(listeners, Listener{
				ARN:           aws.ToString(l.ListenerArn),
				Port:          int(aws.ToInt32(l.Port)),
				Protocol:      string(l.Protocol),
				DefaultAction: formatAction(l.DefaultActions),
			})
		}

		if out.NextMarker == nil {
			break
		}
		marker = out.NextMarker
	}
	return listeners, nil
}

// TargetHealth returns the registered targets of a target group with their health.
func (c *Client) TargetHealth(ctx context.Context, targetGroupARN string) ([]Target, error) {
	out, err := c.api.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(targetGroupARN),
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeTargetHealth: %w", err)
	}

	targets := make([]Target, 0, len(out.TargetHealthDescriptions))
	for _, d := range out.TargetHealthDescriptions {
		t := Target{}
		if d.Target != nil {
			t.ID = aws.ToString(d.Target.Id)
			t.Port = int(aws.ToInt32(d.Target.Port))
		}
		if d.TargetHealth != nil {
			t.State = string(d.TargetHealth.State)
			t.Reason = string(d.TargetHealth.Reason)
			t.Description = aws.ToString(d.TargetHealth.Description)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func formatAction(actions []elbtypes.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	a := actions[0]
	switch a.Type {
	case elbtypes.ActionTypeEnumForward:
		return "forward → " + utils.SecondToLast(aws.ToString(a.TargetGroupArn))
	case elbtypes.ActionTypeEnumRedirect:
		return "redirect"
	case elbtypes.ActionTypeEnumFixedResponse:
		return "fixed-response"
	default:
		return string(a.Type)
	}
}
