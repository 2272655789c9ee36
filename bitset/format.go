package bitset

import (
	"fmt"
	"iter"
	"strings"
)

// formatMembers renders members as {a, b, c}.
func formatMembers[E any](seq iter.Seq[E]) string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for e := range seq {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprint(&sb, e)
	}
	sb.WriteByte('}')
	return sb.String()
}
