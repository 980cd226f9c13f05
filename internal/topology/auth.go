package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
)

// Auth is the handle returned by BuildAuth.
type Auth struct {
	Role     string
	LogGroup string
	Function string
	API      string
	Stage    string

	FunctionName string

	fn  awslambda.Function
	api awsapigateway.LambdaRestApi
}

// BuildAuth declares the auth function and a REST API that proxies every
// path and method to it. The function code is read from the AuthCodeBucket
// and AuthCodeKey parameters supplied at deploy time.
func BuildAuth(scope awscdk.Stack, names Names, cfg config.AuthConfig) Auth {
	a := Auth{
		LogGroup:     IDAuthLogGroup,
		FunctionName: names.Physical(SuffixAuthFunction),
	}

	bucket := awscdk.NewCfnParameter(scope, jsii.String(IDAuthCodeBucket), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String("Bucket holding the auth function deployment package"),
	})
	key := awscdk.NewCfnParameter(scope, jsii.String(IDAuthCodeKey), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String("Object key of the auth function deployment package"),
	})

	// Declared up front so the retention applies from the first invocation.
	lg := awslogs.NewCfnLogGroup(scope, jsii.String(IDAuthLogGroup), &awslogs.CfnLogGroupProps{
		LogGroupName:    jsii.String("/aws/lambda/" + a.FunctionName),
		RetentionInDays: jsii.Number(float64(cfg.LogRetentionDays)),
	})
	lg.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY, nil)

	a.fn = awslambda.NewFunction(scope, jsii.String(IDAuthFunction), &awslambda.FunctionProps{
		FunctionName: jsii.String(a.FunctionName),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String(constants.AuthHandler),
		Architecture: awslambda.Architecture_X86_64(),
		MemorySize:   jsii.Number(128),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(3)),
		Code: awslambda.Code_FromCfnParameters(&awslambda.CfnParametersCodeProps{
			BucketNameParam: bucket,
			ObjectKeyParam:  key,
		}),
	})
	a.fn.Node().AddDependency(lg)
	names.nameTag(a.fn, SuffixAuthFunction)
	a.Function = pin(a.fn, IDAuthFunction)
	a.Role = pin(a.fn, IDAuthRole, "ServiceRole")

	a.api = awsapigateway.NewLambdaRestApi(scope, jsii.String(IDAuthAPI), &awsapigateway.LambdaRestApiProps{
		Handler:        a.fn,
		RestApiName:    names.physical(SuffixAuthAPI),
		CloudWatchRole: jsii.Bool(false),
		EndpointTypes:  &[]awsapigateway.EndpointType{awsapigateway.EndpointType_REGIONAL},
		DeployOptions:  &awsapigateway.StageOptions{StageName: jsii.String(constants.AuthStageName)},
	})
	a.API = pin(a.api, IDAuthAPI)
	a.Stage = pin(a.api.DeploymentStage(), IDAuthStage)

	return a
}
