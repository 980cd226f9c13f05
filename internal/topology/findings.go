package topology

import (
	"fmt"
	"sort"

	"github.com/MrD1360/fargate-vpc-stack/internal/stack"
)

// Severity of a finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a likely defect in the declared topology. Findings are
// reported, never corrected.
type Finding struct {
	Severity Severity `json:"severity"`
	Resource string   `json:"resource"`
	Message  string   `json:"message"`
}

// CheckListenerIngress reports a listener whose port is not admitted by any
// ingress rule of the load balancer's security group.
func CheckListenerIngress(t *stack.Template, e Edge, sg SecurityGroups) []Finding {
	listener, ok := t.Resource(e.Listener)
	if !ok {
		return nil
	}
	port, _ := listener.Properties["Port"].(int)
	protocol, _ := listener.Properties["Protocol"].(string)

	allowed := IngressPorts(t, sg.Edge)
	for _, p := range allowed {
		if p == port {
			return nil
		}
	}
	return []Finding{{
		Severity: SeverityWarning,
		Resource: e.Listener,
		Message: fmt.Sprintf("listener accepts %s on port %d but %s only admits port(s) %v; the listener is unreachable and traffic is unencrypted",
			protocol, port, sg.Edge, allowed),
	}}
}

// IngressPorts returns the sorted single ports opened on a group, from both
// inline rules and standalone ingress resources.
func IngressPorts(t *stack.Template, groupID string) []int {
	var ports []int
	for _, rule := range IngressRules(t, groupID) {
		from, _ := rule["FromPort"].(int)
		to, _ := rule["ToPort"].(int)
		if from == to {
			ports = append(ports, from)
		}
	}
	sort.Ints(ports)
	return ports
}

// IngressRules returns every ingress rule that applies to the group.
func IngressRules(t *stack.Template, groupID string) []map[string]any {
	var rules []map[string]any
	if g, ok := t.Resource(groupID); ok {
		if inline, ok := g.Properties["SecurityGroupIngress"].([]any); ok {
			for _, r := range inline {
				if m, ok := r.(map[string]any); ok {
					rules = append(rules, m)
				}
			}
		}
	}
	for _, id := range t.IDsOfType("AWS::EC2::SecurityGroupIngress") {
		r, _ := t.Resource(id)
		refs := stack.References(r.Properties["GroupId"])
		if len(refs) == 1 && refs[0] == groupID {
			rules = append(rules, r.Properties)
		}
	}
	return rules
}

func transferFinding(ts TransferServer) Finding {
	return Finding{
		Severity: SeverityInfo,
		Resource: ts.Server,
		Message:  "the auth function returns no role or home directory, so transfer logins will be rejected",
	}
}
