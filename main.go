package main

import (
	"fmt"
	"os"

	"github.com/aws/jsii-runtime-go"

	"github.com/MrD1360/fargate-vpc-stack/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Stops the construct library runtime started by the first synthesis.
	defer jsii.Close()

	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
