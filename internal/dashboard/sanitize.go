package dashboard

import "strings"

// tabWidth is the number of spaces a tab expands to in the output pane.
const tabWidth = 4

// sanitize makes a captured output line safe to paint: tabs become spaces
// and all other C0 control characters (including ESC, so child escape
// sequences cannot move the cursor or recolor the dashboard) plus DEL are
// dropped. Printable text, including any multi-byte runes, passes through
// verbatim.
func sanitize(line string) string {
	var sb strings.Builder
	sb.Grow(len(line))
	for _, r := range line {
		switch {
		case r == '\t':
			sb.WriteString(strings.Repeat(" ", tabWidth))
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
