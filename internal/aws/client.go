package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	awsautoscaling "github.com/MrD1360/fargate-vpc-stack/internal/aws/autoscaling"
	awsecr "github.com/MrD1360/fargate-vpc-stack/internal/aws/ecr"
	awsecs "github.com/MrD1360/fargate-vpc-stack/internal/aws/ecs"
	awselb "github.com/MrD1360/fargate-vpc-stack/internal/aws/elb"
	awsiam "github.com/MrD1360/fargate-vpc-stack/internal/aws/iam"
	awslambda "github.com/MrD1360/fargate-vpc-stack/internal/aws/lambda"
	awslogs "github.com/MrD1360/fargate-vpc-stack/internal/aws/logs"
	awss3 "github.com/MrD1360/fargate-vpc-stack/internal/aws/s3"
	awsvpc "github.com/MrD1360/fargate-vpc-stack/internal/aws/vpc"
)

// ServiceClient bundles the clients used to deploy and inspect a stack.
type ServiceClient struct {
	Region         string
	STS            STSAPI
	CloudFormation *cloudformation.Client
	Assets         *awss3sdk.Client
	VPC            *awsvpc.Client
	ECS            *awsecs.Client
	ELB            *awselb.Client
	IAM            *awsiam.Client
	S3             *awss3.Client
	ECR            *awsecr.Client
	Logs           *awslogs.Client
	Lambda         *awslambda.Client
	AutoScaling    *awsautoscaling.Client
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s3Client := awss3sdk.NewFromConfig(cfg)

	return &ServiceClient{
		Region:         cfg.Region,
		STS:            sts.NewFromConfig(cfg),
		CloudFormation: cloudformation.NewFromConfig(cfg),
		Assets:         s3Client,
		VPC:            awsvpc.NewClient(ec2.NewFromConfig(cfg)),
		ECS:            awsecs.NewClient(ecs.NewFromConfig(cfg)),
		ELB:            awselb.NewClient(elbv2.NewFromConfig(cfg)),
		IAM:            awsiam.NewClient(iam.NewFromConfig(cfg)),
		S3:             awss3.NewClient(s3Client),
		ECR:            awsecr.NewClient(ecr.NewFromConfig(cfg)),
		Logs:           awslogs.NewClient(cloudwatchlogs.NewFromConfig(cfg)),
		Lambda:         awslambda.NewClient(lambda.NewFromConfig(cfg)),
		AutoScaling:    awsautoscaling.NewClient(applicationautoscaling.NewFromConfig(cfg)),
	}, nil
}
