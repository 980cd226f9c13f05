package elb

type LoadBalancer struct {
	Name           string
	ARN            string
	State          string
	StateReason    string
	Scheme         string
	DNSName        string
	Subnets        []string
	SecurityGroups []string
}

type Listener struct {
	ARN           string
	Port          int
	Protocol      string
	DefaultAction string
}

type Target struct {
	ID          string
	Port        int
	State       string
	Reason      string
	Description string
}

// Healthy reports whether the target passes its health checks.
func (t Target) Healthy() bool {
	return t.State == "healthy"
}
