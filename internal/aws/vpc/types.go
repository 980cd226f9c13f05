package vpc

import (
	"fmt"
	"strings"
)

type VPCInfo struct {
	VPCID string
	Name  string
	CIDR  string
	State string
}

type SubnetInfo struct {
	SubnetID     string
	Name         string
	Type         string
	CIDR         string
	AZ           string
	AvailableIPs int
	MapPublicIP  bool
}

type SecurityGroupInfo struct {
	GroupID     string
	Name        string
	Description string
	Ingress     []Rule
}

// Rule is one ingress permission. A rule names address ranges, peer groups or both.
type Rule struct {
	Protocol   string
	FromPort   int
	ToPort     int
	CIDRs      []string
	PeerGroups []string
}

// OpenToCIDR reports whether the rule admits any address range.
func (r Rule) OpenToCIDR() bool {
	return len(r.CIDRs) > 0
}

func (r Rule) String() string {
	ports := fmt.Sprintf("%d", r.FromPort)
	if r.Protocol == "All" {
		ports = "all"
	} else if r.ToPort != r.FromPort {
		ports = fmt.Sprintf("%d-%d", r.FromPort, r.ToPort)
	}
	sources := append(append([]string(nil), r.CIDRs...), r.PeerGroups...)
	return fmt.Sprintf("%s/%s from %s", r.Protocol, ports, strings.Join(sources, ","))
}
