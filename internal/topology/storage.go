package topology

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/jsii-runtime-go"
)

// Storage is the handle returned by BuildStorage.
type Storage struct {
	Bucket string

	bucket awss3.Bucket
}

// BuildStorage declares a private, encrypted bucket that is removed with the stack.
func BuildStorage(scope awscdk.Stack, names Names) Storage {
	b := awss3.NewBucket(scope, jsii.String(IDDataBucket), &awss3.BucketProps{
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		ObjectOwnership:   awss3.ObjectOwnership_BUCKET_OWNER_ENFORCED,
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
	})
	names.nameTag(b, SuffixDataBucket)
	return Storage{Bucket: pin(b, IDDataBucket), bucket: b}
}
