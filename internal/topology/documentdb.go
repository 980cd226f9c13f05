package topology

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdocdb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
)

// DocumentDB is the handle returned by BuildDocumentDB.
type DocumentDB struct {
	SubnetGroup string
	Secret      string
	Cluster     string

	cluster awsdocdb.DatabaseCluster
}

// BuildDocumentDB declares a single-instance DocumentDB cluster in the
// isolated subnets, reachable only through the data group. The master
// credentials are generated into a Secrets Manager secret and resolved by
// the engine; the cluster outlives the stack.
func BuildDocumentDB(scope awscdk.Stack, names Names, net Network, sg SecurityGroups, cfg config.DocumentDBConfig) DocumentDB {
	cluster := awsdocdb.NewDatabaseCluster(scope, jsii.String(IDDocDBCluster), &awsdocdb.DatabaseClusterProps{
		DbClusterName: jsii.String(strings.ToLower(names.Physical(SuffixDocDBCluster))),
		MasterUser: &awsdocdb.Login{
			Username:   jsii.String(cfg.MasterUser),
			SecretName: names.physical(SuffixDocDBSecret),
		},
		// The library prepends the "db." class prefix itself.
		InstanceType:     awsec2.NewInstanceType(jsii.String(strings.TrimPrefix(cfg.InstanceClass, "db."))),
		Instances:        jsii.Number(1),
		Vpc:              net.vpc,
		VpcSubnets:       isolatedSubnets(),
		SecurityGroup:    sg.data,
		StorageEncrypted: jsii.Bool(true),
		RemovalPolicy:    awscdk.RemovalPolicy_RETAIN,
	})

	return DocumentDB{
		Cluster:     pin(cluster, IDDocDBCluster),
		SubnetGroup: pin(cluster, IDDocDBSubnetGroup, "Subnets"),
		Secret:      pin(cluster, IDDocDBSecret, "Secret"),
		cluster:     cluster,
	}
}
