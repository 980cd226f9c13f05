package ui

import (
	"fmt"
	"sort"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/status"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
	"github.com/MrD1360/fargate-vpc-stack/internal/utils"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

// StatusReport renders the stack summary, its outputs and one row per check.
func StatusReport(r *status.Report) string {
	d := NewDetailBuilder(14)
	d.Section("Stack")
	d.Row("Name", r.Stack)
	d.Row("Status", RenderStatus(r.StackStatus))
	d.Row("Reason", r.StackReason)
	if r.StackStatus != status.NotDeployed {
		d.Row("Updated", utils.TimeOrDash(r.Updated, utils.DateTime))
	}

	if len(r.Outputs) > 0 {
		d.Blank()
		d.Section("Outputs")
		keys := make([]string, 0, len(r.Outputs))
		for k := range r.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.Row(k, r.Outputs[k])
		}
	}

	if len(r.Checks) == 0 {
		return d.String()
	}
	t := newTable("COMPONENT", "RESOURCE", "STATE", "DETAIL")
	for _, c := range r.Checks {
		t.Row(c.Component, c.Resource, RenderStatus(string(c.Level))+" "+c.State, c.Detail)
	}
	d.Blank()
	d.Section("Checks")
	d.WriteString(t.Render() + "\n")
	return d.String()
}

// Changes renders a change set. An empty set renders a one-line notice.
func Changes(stackName string, changes []deploy.Change) string {
	if len(changes) == 0 {
		return MutedStyle.Render(fmt.Sprintf("%s: no changes", stackName)) + "\n"
	}
	t := newTable("ACTION", "LOGICAL ID", "TYPE", "REPLACEMENT")
	for _, c := range changes {
		t.Row(RenderStatus(c.Action), c.LogicalID, c.ResourceType, c.Replacement)
	}
	return TitleStyle.Render(fmt.Sprintf("%s: %d changes", stackName, len(changes))) + "\n" + t.Render() + "\n"
}

// Findings renders advisory findings from composition.
func Findings(findings []topology.Finding) string {
	if len(findings) == 0 {
		return ""
	}
	t := newTable("SEVERITY", "RESOURCE", "MESSAGE")
	for _, f := range findings {
		t.Row(RenderStatus(string(f.Severity)), f.Resource, f.Message)
	}
	return t.Render() + "\n"
}

// Resources renders the provisioned resources of a stack.
func Resources(resources []deploy.Resource) string {
	t := newTable("LOGICAL ID", "TYPE", "STATUS", "PHYSICAL ID")
	for _, r := range resources {
		t.Row(r.LogicalID, r.Type, RenderStatus(r.Status), r.PhysicalID)
	}
	return t.Render() + "\n" + MutedStyle.Render(strconv.Itoa(len(resources))+" resources") + "\n"
}
