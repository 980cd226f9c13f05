// Command authfn is the Lambda entry point of the auth function.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/MrD1360/fargate-vpc-stack/internal/authfn"
)

func main() {
	lambda.Start(authfn.Handle)
}
