// Package render draws a composed stack as a D2 diagram.
package render

import (
	"fmt"
	"strings"

	"github.com/MrD1360/fargate-vpc-stack/internal/stack"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
)

// D2Renderer generates D2 diagram text.
type D2Renderer struct {
	Direction   string // right, down, left, up
	DetailLevel string // minimal, standard
}

func (r *D2Renderer) detail() string {
	if r.DetailLevel == "" {
		return "standard"
	}
	return r.DetailLevel
}

func (r *D2Renderer) visible(res *stack.Resource) bool {
	return r.detail() != "minimal" || !plumbing[res.Type]
}

// Render emits one container per tier and one edge per reference between
// resources. Output is stable for equal stacks.
func (r *D2Renderer) Render(s *topology.Stack) string {
	var b strings.Builder

	direction := r.Direction
	if direction == "" {
		direction = "right"
	}
	fmt.Fprintf(&b, "direction: %s\n\n", direction)

	t := s.Template
	byTier := map[Tier][]string{}
	nodes := map[string]string{}
	for _, id := range t.LogicalIDs() {
		res := t.Resources[id]
		if !r.visible(res) {
			continue
		}
		tier := TierOf(res.Type)
		byTier[tier] = append(byTier[tier], id)
		nodes[id] = string(tier) + "." + SanitizeID(id)
	}

	fmt.Fprintf(&b, "stack: %s {\n", Quote(s.Name))
	for _, tier := range tierOrder {
		ids := byTier[tier]
		if len(ids) == 0 {
			continue
		}
		color := tierColors[tier]
		fmt.Fprintf(&b, "  %s: %s {\n", tier, Quote(tierLabels[tier]))
		fmt.Fprintf(&b, "    style.fill: %q\n", color.Fill)
		fmt.Fprintf(&b, "    style.stroke: %q\n", color.Stroke)
		for _, id := range ids {
			fmt.Fprintf(&b, "    %s: %s {\n", SanitizeID(id), Quote(id))
			fmt.Fprintf(&b, "      tooltip: %q\n", t.Resources[id].Type)
			b.WriteString("    }\n")
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")

	edges := r.edges(t, nodes)
	if len(edges) > 0 {
		b.WriteString("\n")
		for _, e := range edges {
			fmt.Fprintf(&b, "stack.%s -> stack.%s\n", e[0], e[1])
		}
	}
	return b.String()
}

// edges lists "uses" relations between visible resources.
func (r *D2Renderer) edges(t *stack.Template, nodes map[string]string) [][2]string {
	var out [][2]string
	for _, id := range t.LogicalIDs() {
		from, ok := nodes[id]
		if !ok {
			continue
		}
		for _, ref := range stack.References(t.Resources[id].Properties) {
			to, ok := nodes[ref]
			if !ok || ref == id {
				continue
			}
			out = append(out, [2]string{from, to})
		}
	}
	return out
}
