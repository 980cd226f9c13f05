package stack

import (
	"regexp"
	"sort"
	"strings"
)

// Ref references a resource's primary identifier or a parameter.
func Ref(id string) map[string]any {
	return map[string]any{"Ref": id}
}

// GetAtt references an attribute of a resource.
func GetAtt(id, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{id, attr}}
}

// Refs returns a Ref for every id.
func Refs(ids ...string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = Ref(id)
	}
	return out
}

var subPlaceholder = regexp.MustCompile(`\$\{([A-Za-z0-9]+)(\.[A-Za-z0-9.]+)?\}`)

// References returns the sorted, de-duplicated logical IDs referenced from v
// through Ref, Fn::GetAtt or Fn::Sub. Pseudo parameters are skipped.
func References(v any) []string {
	seen := map[string]bool{}
	collectRefs(v, seen)
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func collectRefs(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			switch k {
			case "Ref":
				if id, ok := inner.(string); ok && !strings.HasPrefix(id, "AWS::") {
					seen[id] = true
				}
				continue
			case "Fn::GetAtt":
				switch parts := inner.(type) {
				case []any:
					if len(parts) > 0 {
						if id, ok := parts[0].(string); ok {
							seen[id] = true
						}
					}
				case string:
					// Short form "Id.Attr".
					seen[strings.SplitN(parts, ".", 2)[0]] = true
				}
				continue
			case "Fn::Sub":
				if s, ok := inner.(string); ok {
					for _, m := range subPlaceholder.FindAllStringSubmatch(s, -1) {
						seen[m[1]] = true
					}
					continue
				}
			}
			collectRefs(inner, seen)
		}
	case []any:
		for _, inner := range val {
			collectRefs(inner, seen)
		}
	}
}
