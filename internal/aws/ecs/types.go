package ecs

import "time"

type ServiceStatus struct {
	Name         string
	Status       string
	DesiredCount int
	RunningCount int
	PendingCount int
	TaskDef      string
	LaunchType   string

	Subnets        []string
	SecurityGroups []string
	AssignPublicIP string

	RolloutState  string
	RolloutReason string
	TargetGroups  []string
	Events        []ServiceEvent
}

// Steady reports whether every desired task is running and nothing is pending.
func (s *ServiceStatus) Steady() bool {
	return s.RunningCount == s.DesiredCount && s.PendingCount == 0 &&
		(s.RolloutState == "" || s.RolloutState == "COMPLETED")
}

type ServiceEvent struct {
	CreatedAt time.Time
	Message   string
}
