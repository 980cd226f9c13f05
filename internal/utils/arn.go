package utils

import "strings"

// ShortName returns the resource name at the end of an ARN. Slash-delimited
// resources (task definitions, roles, load balancers) yield the last path
// segment; colon-delimited ones such as Lambda functions yield the last
// field. Anything else is returned unchanged.
func ShortName(arn string) string {
	if i := strings.LastIndexByte(arn, '/'); i >= 0 {
		return arn[i+1:]
	}
	if strings.HasPrefix(arn, "arn:") {
		if i := strings.LastIndexByte(arn, ':'); i >= 0 {
			return arn[i+1:]
		}
	}
	return arn
}

// SecondToLast returns the segment before the final "/" of an ARN. Target
// group and load balancer ARNs keep their name there, followed by an id.
func SecondToLast(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return arn
}
