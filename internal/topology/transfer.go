package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awstransfer"
	"github.com/aws/jsii-runtime-go"
)

// TransferServer is the handle returned by BuildTransferServer.
type TransferServer struct {
	Server     string
	Permission string

	server awstransfer.CfnServer
}

// BuildTransferServer declares an SFTP server that authenticates users
// through the auth function. There is no higher-level construct for
// Transfer Family, so the resources are declared directly.
func BuildTransferServer(scope awscdk.Stack, names Names, a Auth) TransferServer {
	server := awstransfer.NewCfnServer(scope, jsii.String(IDTransferServer), &awstransfer.CfnServerProps{
		IdentityProviderType: jsii.String("AWS_LAMBDA"),
		IdentityProviderDetails: &awstransfer.CfnServer_IdentityProviderDetailsProperty{
			Function: a.fn.FunctionArn(),
		},
		Protocols:    jsii.Strings("SFTP"),
		EndpointType: jsii.String("PUBLIC"),
		Domain:       jsii.String("S3"),
	})
	names.nameTag(server, SuffixTransferServer)

	awslambda.NewCfnPermission(scope, jsii.String(IDTransferPermission), &awslambda.CfnPermissionProps{
		Action:       jsii.String("lambda:InvokeFunction"),
		FunctionName: a.fn.FunctionArn(),
		Principal:    jsii.String("transfer.amazonaws.com"),
		SourceArn:    server.AttrArn(),
	})

	return TransferServer{Server: IDTransferServer, Permission: IDTransferPermission, server: server}
}
