package status

import "time"

// Level grades a check.
type Level string

const (
	LevelOK   Level = "ok"
	LevelWarn Level = "warn"
	LevelFail Level = "fail"
)

// NotDeployed is the status reported for a stack that does not exist.
const NotDeployed = "NOT_DEPLOYED"

type Check struct {
	Component string `json:"component"`
	Resource  string `json:"resource"`
	Level     Level  `json:"level"`
	State     string `json:"state"`
	Detail    string `json:"detail,omitempty"`
}

type Report struct {
	Stack       string            `json:"stack"`
	StackStatus string            `json:"stackStatus"`
	StackReason string            `json:"stackReason,omitempty"`
	Updated     time.Time         `json:"updated,omitempty"`
	Outputs     map[string]string `json:"outputs,omitempty"`
	Checks      []Check           `json:"checks"`
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
}

func (r *Report) failed(component, resource string, err error) {
	r.add(Check{Component: component, Resource: resource, Level: LevelFail, State: "error", Detail: err.Error()})
}

// Healthy reports whether the stack exists and no check failed.
func (r *Report) Healthy() bool {
	if r.StackStatus == NotDeployed {
		return false
	}
	for _, c := range r.Checks {
		if c.Level == LevelFail {
			return false
		}
	}
	return true
}
