// Package topology declares the stack's resources with the AWS construct
// library. Each builder adds one tier to the stack scope and returns a
// handle of the logical IDs later consumers look resources up by.
package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
)

// Names derives physical resource names from the project and environment.
type Names struct {
	Project string
	Env     string
}

// NamesFor returns the naming scheme for a resolved configuration.
func NamesFor(cfg *config.StackConfig) Names {
	return Names{Project: cfg.Project, Env: cfg.Env}
}

// Physical returns "<project>-<env>-<suffix>".
func (n Names) Physical(suffix string) string {
	return n.Project + "-" + n.Env + "-" + suffix
}

// physical is Physical as a jsii string.
func (n Names) physical(suffix string) *string {
	return jsii.String(n.Physical(suffix))
}

// nameTag sets the Name tag on c and everything below it.
func (n Names) nameTag(c constructs.IConstruct, suffix string) {
	awscdk.Tags_Of(c).Add(jsii.String("Name"), n.physical(suffix), nil)
}

// Physical name suffixes.
const (
	SuffixVPC             = "customVPC"
	SuffixPublicSubnet    = "publicsubnet"
	SuffixIsolatedSubnet  = "privatesubnet"
	SuffixS3Endpoint      = "S3Endpoint"
	SuffixEndpointSG      = "endpoint_sg"
	SuffixEdgeSG          = "sg_alb_pub"
	SuffixAppSG           = "sg_customer_app_service"
	SuffixDataSG          = "docdb_server_sg"
	SuffixECRDkrEndpoint  = "ecr-dkr"
	SuffixECRAPIEndpoint  = "ecr-api"
	SuffixSecretsEndpoint = "secretsmanager"
	SuffixCluster         = "ecsCluster"
	SuffixTaskRole        = "task_role_fargate"
	SuffixTaskDefinition  = "fargateTaskDef"
	SuffixContainer       = "applicationcontainer"
	SuffixService         = "FargateService"
	SuffixLoadBalancer    = "frontALB"
	SuffixTargetGroup     = "fargatetargate"
	SuffixDataBucket      = "data-storage"
	SuffixAuthFunction    = "authlambda"
	SuffixAuthAPI         = "apigwEndpoint"
	SuffixDocDBSecret     = "/usercluster/docdb/chosenuser"
	SuffixDocDBCluster    = "documentDBcluster"
	SuffixTransferServer  = "transferserver"
)
