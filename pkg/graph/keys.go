package graph

import (
	"fmt"
	"strconv"
)

// PairKey identifies an unordered index pair. The smaller index always comes
// first so (a,b) and (b,a) map to the same key.
func PairKey(a, b int) string {
	if b < a {
		a, b = b, a
	}
	return strconv.Itoa(a) + ":" + strconv.Itoa(b)
}

// EdgeKey identifies a directed, typed edge between token-keyed nodes.
func EdgeKey(source, target, edgeType string) string {
	return source + "->" + target + ":" + edgeType
}

// MidKey names the intermediate relation node standing in for an edge.
func MidKey(source, target string) string {
	return fmt.Sprintf("%s->%s", source, target)
}
