// Package status compares a deployed stack against what the topology
// declares and reports one check per component.
package status

import (
	"context"
	"fmt"
	"strings"

	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/rs/zerolog"

	"github.com/MrD1360/fargate-vpc-stack/internal/aws/autoscaling"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/ecr"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/ecs"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/elb"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/iam"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/lambda"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/s3"
	"github.com/MrD1360/fargate-vpc-stack/internal/aws/vpc"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
)

type StackReader interface {
	Stack(ctx context.Context, name string) (*cftypes.Stack, error)
	Outputs(ctx context.Context, name string) (map[string]string, error)
	Resources(ctx context.Context, name string) ([]deploy.Resource, error)
}

type NetworkReader interface {
	DescribeVPC(ctx context.Context, vpcID string) (*vpc.VPCInfo, error)
	ListSubnets(ctx context.Context, vpcID string) ([]vpc.SubnetInfo, error)
	ListSecurityGroups(ctx context.Context, vpcID string) ([]vpc.SecurityGroupInfo, error)
}

type ServiceReader interface {
	DescribeService(ctx context.Context, clusterName, serviceName string) (*ecs.ServiceStatus, error)
}

type ScalingReader interface {
	ServiceScaling(ctx context.Context, clusterName, serviceName string) (*autoscaling.ServiceScaling, error)
}

type LoadBalancerReader interface {
	DescribeLoadBalancer(ctx context.Context, lbARN string) (*elb.LoadBalancer, error)
	ListListeners(ctx context.Context, lbARN string) ([]elb.Listener, error)
	TargetHealth(ctx context.Context, targetGroupARN string) ([]elb.Target, error)
}

type BucketReader interface {
	BucketPosture(ctx context.Context, bucket string) (*s3.Posture, error)
}

type FunctionReader interface {
	GetFunction(ctx context.Context, name string) (*lambda.FunctionInfo, error)
}

type ImageReader interface {
	FindImage(ctx context.Context, repo, tag string) (*ecr.Image, error)
}

type RoleReader interface {
	ListAttachedRolePolicies(ctx context.Context, roleName string) ([]iam.AttachedPolicy, error)
}

// Inspector reads live state. Readers left nil are skipped.
type Inspector struct {
	Stacks    StackReader
	Network   NetworkReader
	Services  ServiceReader
	Scaling   ScalingReader
	Balancers LoadBalancerReader
	Buckets   BucketReader
	Functions FunctionReader
	Images    ImageReader
	Roles     RoleReader

	log zerolog.Logger
}

func NewInspector(log zerolog.Logger) *Inspector {
	return &Inspector{log: log}
}

// Inspect reports on the deployed form of s. A stack that was never
// deployed yields a report with no checks rather than an error.
func (in *Inspector) Inspect(ctx context.Context, s *topology.Stack, image string) (*Report, error) {
	r := &Report{Stack: s.Name}

	st, err := in.Stacks.Stack(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if st == nil {
		r.StackStatus = NotDeployed
		return r, nil
	}
	r.StackStatus = string(st.StackStatus)
	if st.StackStatusReason != nil {
		r.StackReason = *st.StackStatusReason
	}
	switch {
	case st.LastUpdatedTime != nil:
		r.Updated = *st.LastUpdatedTime
	case st.CreationTime != nil:
		r.Updated = *st.CreationTime
	}

	outputs, err := in.Stacks.Outputs(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	r.Outputs = outputs

	resources, err := in.Stacks.Resources(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	physical := make(map[string]string, len(resources))
	for _, res := range resources {
		physical[res.LogicalID] = res.PhysicalID
		if strings.HasSuffix(res.Status, "_FAILED") {
			r.add(Check{Component: "stack", Resource: res.LogicalID, Level: LevelFail, State: res.Status, Detail: res.Reason})
		}
	}

	in.network(ctx, r, outputs[topology.OutputVPCID], physical)
	in.compute(ctx, r, outputs[topology.OutputClusterName], outputs[topology.OutputServiceName], physical[topology.IDTaskRole])
	in.edge(ctx, r, physical[topology.IDLoadBalancer], physical[topology.IDTargetGroup])
	in.storage(ctx, r, outputs[topology.OutputDataBucket])
	in.auth(ctx, r, outputs[topology.OutputAuthFunctionName])
	in.image(ctx, r, image)

	in.log.Debug().Str("stack", s.Name).Int("checks", len(r.Checks)).Msg("inspected stack")
	return r, nil
}

func (in *Inspector) network(ctx context.Context, r *Report, vpcID string, physical map[string]string) {
	if in.Network == nil || vpcID == "" {
		return
	}

	v, err := in.Network.DescribeVPC(ctx, vpcID)
	if err != nil {
		r.failed("network", vpcID, err)
		return
	}
	r.add(Check{Component: "network", Resource: v.VPCID, Level: levelIf(v.State == "available", LevelWarn), State: v.State, Detail: v.CIDR})

	subnets, err := in.Network.ListSubnets(ctx, vpcID)
	if err != nil {
		r.failed("network", vpcID, err)
		return
	}
	counts := map[string]int{}
	zones := map[string]map[string]bool{}
	for _, sn := range subnets {
		counts[sn.Type]++
		if zones[sn.Type] == nil {
			zones[sn.Type] = map[string]bool{}
		}
		zones[sn.Type][sn.AZ] = true
		if sn.Type == string(topology.SubnetIsolated) && sn.MapPublicIP {
			r.add(Check{Component: "network", Resource: sn.SubnetID, Level: LevelFail, State: "public-ip", Detail: "isolated subnet assigns public addresses"})
		}
	}
	pub, iso := string(topology.SubnetPublic), string(topology.SubnetIsolated)
	layout := Check{
		Component: "network",
		Resource:  "subnets",
		Level:     LevelOK,
		State:     fmt.Sprintf("%d public, %d isolated", counts[pub], counts[iso]),
	}
	// Each category holds exactly one subnet per zone.
	for _, typ := range []string{pub, iso} {
		if counts[typ] != constants.MaxAZs || len(zones[typ]) != constants.MaxAZs || zones[typ][""] {
			layout.Level = LevelFail
			layout.Detail = fmt.Sprintf("want %d %s subnets in %d distinct zones", constants.MaxAZs, strings.ToLower(typ), constants.MaxAZs)
			break
		}
	}
	r.add(layout)

	groups, err := in.Network.ListSecurityGroups(ctx, vpcID)
	if err != nil {
		r.failed("security", vpcID, err)
		return
	}
	dataGroup := physical[topology.IDDataSG]
	appGroup := physical[topology.IDAppSG]
	for _, g := range groups {
		if g.GroupID != dataGroup && g.GroupID != appGroup {
			continue
		}
		c := Check{Component: "security", Resource: g.Name, Level: LevelOK, State: "peer-only"}
		for _, rule := range g.Ingress {
			if rule.OpenToCIDR() {
				c.Level = LevelFail
				c.State = "open"
				c.Detail = rule.String()
				break
			}
		}
		r.add(c)
	}
}

func (in *Inspector) compute(ctx context.Context, r *Report, cluster, service, role string) {
	if in.Services != nil && cluster != "" && service != "" {
		svc, err := in.Services.DescribeService(ctx, cluster, service)
		if err != nil {
			r.failed("compute", service, err)
		} else {
			c := Check{
				Component: "compute",
				Resource:  svc.Name,
				Level:     levelIf(svc.Steady(), LevelWarn),
				State:     fmt.Sprintf("%d/%d running", svc.RunningCount, svc.DesiredCount),
				Detail:    svc.TaskDef,
			}
			if svc.AssignPublicIP == "ENABLED" {
				c.Level = LevelFail
				c.Detail = "tasks receive public addresses"
			} else if len(svc.Events) > 0 && !svc.Steady() {
				c.Detail = svc.Events[0].Message
			}
			r.add(c)
		}
	}

	if in.Scaling != nil && cluster != "" && service != "" {
		sc, err := in.Scaling.ServiceScaling(ctx, cluster, service)
		if err != nil {
			r.failed("compute", "scaling", err)
		} else {
			r.add(Check{Component: "compute", Resource: "scaling", Level: LevelOK, State: sc.String()})
		}
	}

	if in.Roles != nil && role != "" {
		policies, err := in.Roles.ListAttachedRolePolicies(ctx, role)
		if err != nil {
			r.failed("compute", role, err)
		} else {
			r.add(Check{Component: "compute", Resource: role, Level: levelIf(len(policies) > 0, LevelWarn), State: fmt.Sprintf("%d policies", len(policies)), Detail: iam.PolicyNames(policies)})
		}
	}
}

func (in *Inspector) edge(ctx context.Context, r *Report, lbARN, tgARN string) {
	if in.Balancers == nil || lbARN == "" {
		return
	}

	lb, err := in.Balancers.DescribeLoadBalancer(ctx, lbARN)
	if err != nil {
		r.failed("edge", lbARN, err)
		return
	}
	r.add(Check{Component: "edge", Resource: lb.Name, Level: levelIf(lb.State == "active", LevelWarn), State: lb.State, Detail: lb.DNSName})

	listeners, err := in.Balancers.ListListeners(ctx, lbARN)
	if err != nil {
		r.failed("edge", lb.Name, err)
		return
	}
	for _, l := range listeners {
		r.add(Check{Component: "edge", Resource: fmt.Sprintf("%s:%d", l.Protocol, l.Port), Level: LevelOK, State: "listening", Detail: l.DefaultAction})
	}

	if tgARN == "" {
		return
	}
	targets, err := in.Balancers.TargetHealth(ctx, tgARN)
	if err != nil {
		r.failed("edge", tgARN, err)
		return
	}
	healthy := 0
	for _, t := range targets {
		if t.Healthy() {
			healthy++
		}
	}
	r.add(Check{
		Component: "edge",
		Resource:  "targets",
		Level:     levelIf(len(targets) > 0 && healthy == len(targets), LevelWarn),
		State:     fmt.Sprintf("%d/%d healthy", healthy, len(targets)),
	})
}

func (in *Inspector) storage(ctx context.Context, r *Report, bucket string) {
	if in.Buckets == nil || bucket == "" {
		return
	}
	p, err := in.Buckets.BucketPosture(ctx, bucket)
	if err != nil {
		r.failed("storage", bucket, err)
		return
	}
	state := "private"
	if !p.Private() {
		state = fmt.Sprintf("%d/4 public access blocks", p.BlockedSettings)
	}
	r.add(Check{
		Component: "storage",
		Resource:  bucket,
		Level:     levelIf(p.Private() && p.Encryption != "", LevelFail),
		State:     state,
		Detail:    strings.TrimSpace(p.Encryption + " " + p.ObjectOwnership),
	})
}

func (in *Inspector) auth(ctx context.Context, r *Report, function string) {
	if in.Functions == nil || function == "" {
		return
	}
	fn, err := in.Functions.GetFunction(ctx, function)
	if err != nil {
		r.failed("auth", function, err)
		return
	}
	if fn == nil {
		r.add(Check{Component: "auth", Resource: function, Level: LevelFail, State: "missing"})
		return
	}
	r.add(Check{Component: "auth", Resource: fn.Name, Level: levelIf(fn.Ready(), LevelWarn), State: fn.State, Detail: fn.StateReason})
}

// image reports whether a private ECR image exists. Public images are
// not looked up.
func (in *Inspector) image(ctx context.Context, r *Report, image string) {
	if in.Images == nil || image == "" {
		return
	}
	ref, err := ecr.ParseImageRef(image)
	if err != nil {
		r.failed("image", image, err)
		return
	}
	if !ref.Private() {
		return
	}
	img, err := in.Images.FindImage(ctx, ref.Repository, ref.Tag)
	if err != nil {
		r.failed("image", image, err)
		return
	}
	if img == nil {
		r.add(Check{Component: "image", Resource: ref.Repository + ":" + ref.Tag, Level: LevelWarn, State: "not pushed"})
		return
	}
	r.add(Check{Component: "image", Resource: ref.Repository + ":" + ref.Tag, Level: LevelOK, State: "present", Detail: img.Digest})
}

func levelIf(ok bool, otherwise Level) Level {
	if ok {
		return LevelOK
	}
	return otherwise
}
