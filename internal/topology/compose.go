package topology

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/stack"
)

// Stack is a composed template together with the handles of every tier.
type Stack struct {
	Name     string
	Template *stack.Template
	Findings []Finding
	Tags     map[string]string

	Network  Network
	Security SecurityGroups
	Compute  Compute
	Edge     Edge
	Storage  Storage
	Auth     Auth

	// Set only when the matching feature is enabled.
	DocumentDB *DocumentDB
	Transfer   *TransferServer
}

// Output names.
const (
	OutputVPCID            = "VpcId"
	OutputLoadBalancerDNS  = "LoadBalancerDnsName"
	OutputClusterName      = "ClusterName"
	OutputServiceName      = "ServiceName"
	OutputDataBucket       = "DataBucketName"
	OutputAuthFunctionName = "AuthFunctionName"
	OutputAPIEndpoint      = "ApiEndpoint"
	OutputDocDBEndpoint    = "DocumentDbEndpoint"
	OutputTransferServerID = "TransferServerId"
)

// Compose validates cfg, declares every tier in dependency order and
// synthesizes the result into a template. The stack is environment
// agnostic: zones are resolved by the engine at deploy time.
func Compose(cfg *config.StackConfig) (s *Stack, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("composing stack: %w", err)
	}

	outdir, err := os.MkdirTemp("", "stackgen-synth-")
	if err != nil {
		return nil, fmt.Errorf("composing stack: %w", err)
	}
	defer os.RemoveAll(outdir)

	// Construct validation errors surface as panics from the runtime.
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("composing stack: %v", r)
		}
	}()

	s = &Stack{
		Name: cfg.StackName(),
		Tags: stackTags(cfg),
	}

	app := awscdk.NewApp(&awscdk.AppProps{
		Outdir:             jsii.String(outdir),
		AnalyticsReporting: jsii.Bool(false),
		StackTraces:        jsii.Bool(false),
		TreeMetadata:       jsii.Bool(false),
	})
	tags := make(map[string]*string, len(s.Tags))
	for k, v := range s.Tags {
		tags[k] = jsii.String(v)
	}
	scope := awscdk.NewStack(app, jsii.String(s.Name), &awscdk.StackProps{
		StackName:          jsii.String(s.Name),
		Description:        jsii.String(fmt.Sprintf("%s (%s): Fargate service behind a load balancer in a two-zone VPC", cfg.Project, cfg.Env)),
		Synthesizer:        awscdk.NewBootstraplessSynthesizer(&awscdk.BootstraplessSynthesizerProps{}),
		AnalyticsReporting: jsii.Bool(false),
		Tags:               &tags,
	})
	scope.TemplateOptions().SetTemplateFormatVersion(jsii.String(stack.FormatVersion))

	names := NamesFor(cfg)
	s.Network = BuildNetwork(scope, names, cfg.Network)
	s.Security = BuildSecurity(scope, names, s.Network, cfg.Security, cfg.Compute.ContainerPort)
	s.Compute = BuildCompute(scope, names, s.Network, s.Security, cfg.Compute)
	s.Edge = BuildEdge(scope, names, s.Network, s.Security, s.Compute)
	s.Storage = BuildStorage(scope, names)
	s.Auth = BuildAuth(scope, names, cfg.Auth)

	output := func(name, description string, value *string) {
		awscdk.NewCfnOutput(scope, jsii.String(name), &awscdk.CfnOutputProps{
			Description: jsii.String(description),
			Value:       value,
		})
	}

	if cfg.Features.DocumentDB {
		d := BuildDocumentDB(scope, names, s.Network, s.Security, cfg.DocumentDB)
		s.DocumentDB = &d
		output(OutputDocDBEndpoint, "DocumentDB cluster endpoint", d.cluster.ClusterEndpoint().Hostname())
	}
	if cfg.Features.TransferServer {
		ts := BuildTransferServer(scope, names, s.Auth)
		s.Transfer = &ts
		output(OutputTransferServerID, "Transfer server ID", ts.server.AttrServerId())
	}

	output(OutputVPCID, "VPC ID", s.Network.vpc.VpcId())
	output(OutputLoadBalancerDNS, "Load balancer DNS name", s.Edge.lb.LoadBalancerDnsName())
	output(OutputClusterName, "ECS cluster name", s.Compute.cluster.ClusterName())
	output(OutputServiceName, "ECS service name", s.Compute.service.ServiceName())
	output(OutputDataBucket, "Data bucket name", s.Storage.bucket.BucketName())
	output(OutputAuthFunctionName, "Auth function name", s.Auth.fn.FunctionName())
	output(OutputAPIEndpoint, "Auth API invoke URL", s.Auth.api.Url())

	if s.Template, err = synth(app, scope); err != nil {
		return nil, fmt.Errorf("composing stack: %w", err)
	}

	s.Findings = CheckListenerIngress(s.Template, s.Edge, s.Security)
	if s.Transfer != nil {
		s.Findings = append(s.Findings, transferFinding(*s.Transfer))
	}
	return s, nil
}

// synth renders the cloud assembly and decodes the stack's template.
func synth(app awscdk.App, scope awscdk.Stack) (*stack.Template, error) {
	artifact := app.Synth(nil).GetStackByName(scope.StackName())
	data, err := json.Marshal(artifact.Template())
	if err != nil {
		return nil, fmt.Errorf("reading synthesized template: %w", err)
	}
	return stack.Decode(data)
}

func stackTags(cfg *config.StackConfig) map[string]string {
	tags := map[string]string{
		"stackgen:project": cfg.Project,
		"stackgen:env":     cfg.Env,
	}
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	return tags
}
