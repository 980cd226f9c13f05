package topology

import (
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Logical IDs of the fixed resources. Constructs derive hashed IDs from
// their tree path; the ones below are pinned so that deployed resources can
// be looked up by a stable name.
const (
	IDVPC               = "Vpc"
	IDInternetGateway   = "InternetGateway"
	IDGatewayAttachment = "InternetGatewayAttachment"
	IDS3Endpoint        = "S3GatewayEndpoint"

	IDEndpointSG = "EndpointSecurityGroup"
	IDEdgeSG     = "EdgeSecurityGroup"
	IDAppSG      = "AppSecurityGroup"
	IDDataSG     = "DataSecurityGroup"

	IDECRAPIEndpoint  = "EcrApiEndpoint"
	IDECRDkrEndpoint  = "EcrDkrEndpoint"
	IDSecretsEndpoint = "SecretsManagerEndpoint"

	IDCluster        = "Cluster"
	IDTaskRole       = "TaskRole"
	IDTaskDefinition = "TaskDefinition"
	IDService        = "Service"

	IDLoadBalancer = "LoadBalancer"
	IDListener     = "HttpListener"
	IDTargetGroup  = "TargetGroup"

	IDDataBucket = "DataBucket"

	IDAuthCodeBucket = "AuthCodeBucket"
	IDAuthCodeKey    = "AuthCodeKey"
	IDAuthRole       = "AuthFunctionRole"
	IDAuthLogGroup   = "AuthFunctionLogGroup"
	IDAuthFunction   = "AuthFunction"
	IDAuthAPI        = "AuthApi"
	IDAuthStage      = "AuthApiStage"

	IDDocDBSubnetGroup = "DocDbSubnetGroup"
	IDDocDBSecret      = "DocDbSecret"
	IDDocDBCluster     = "DocDbCluster"

	IDTransferServer     = "TransferServer"
	IDTransferPermission = "TransferInvokePermission"
)

// Per-zone IDs are numbered from 1.
func zoneID(prefix string, zone int) string {
	return prefix + strconv.Itoa(zone+1)
}

// pin overrides the logical ID of the CloudFormation resource behind c. A
// path descends to a named child first. Level-2 constructs resolve to their
// default child.
func pin(c constructs.IConstruct, logicalID string, path ...string) string {
	for _, p := range path {
		c = c.Node().FindChild(jsii.String(p))
	}
	el, ok := c.(awscdk.CfnElement)
	if !ok {
		el = c.Node().DefaultChild().(awscdk.CfnElement)
	}
	el.OverrideLogicalId(jsii.String(logicalID))
	return logicalID
}
