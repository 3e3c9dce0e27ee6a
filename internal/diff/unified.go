package diff

import (
	"fmt"
	"strings"
)

// splitLines yields the renderable lines of a text: empty content has no
// lines, and one trailing newline does not create a final empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func containsLine(lines []string, line string) bool {
	for _, l := range lines {
		if l == line {
			return true
		}
	}
	return false
}

// Unified renders the hunk body for a modified file: a single synthetic
// header carrying whole-side line counts, then greedy matcher output.
// When the current after-line occurs nowhere in the remaining before-lines
// it is an insertion; otherwise the current before-line is a deletion. The
// result is quadratic in the worst case and not guaranteed minimal when
// lines recur.
func Unified(before, after string) string {
	beforeLines := splitLines(before)
	afterLines := splitLines(after)

	var b strings.Builder
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(beforeLines), len(afterLines))

	i, j := 0, 0
	for i < len(beforeLines) || j < len(afterLines) {
		switch {
		case i < len(beforeLines) && j < len(afterLines) && beforeLines[i] == afterLines[j]:
			fmt.Fprintf(&b, " %s\n", beforeLines[i])
			i++
			j++
		case j < len(afterLines) && (i >= len(beforeLines) || !containsLine(beforeLines[i:], afterLines[j])):
			fmt.Fprintf(&b, "+%s\n", afterLines[j])
			j++
		default:
			fmt.Fprintf(&b, "-%s\n", beforeLines[i])
			i++
		}
	}

	return b.String()
}

// FormatFile renders one complete file block. Added and deleted files emit
// every line of their single side with no hunk header; modified files get
// the synthetic hunk from Unified.
func FormatFile(path string, status Status, before, after string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)

	switch status {
	case StatusAdded:
		b.WriteString("new file\n")
		b.WriteString("--- /dev/null\n")
		fmt.Fprintf(&b, "+++ b/%s\n", path)
		for _, line := range splitLines(after) {
			fmt.Fprintf(&b, "+%s\n", line)
		}
	case StatusDeleted:
		b.WriteString("deleted file\n")
		fmt.Fprintf(&b, "--- a/%s\n", path)
		b.WriteString("+++ /dev/null\n")
		for _, line := range splitLines(before) {
			fmt.Fprintf(&b, "-%s\n", line)
		}
	default:
		fmt.Fprintf(&b, "--- a/%s\n", path)
		fmt.Fprintf(&b, "+++ b/%s\n", path)
		b.WriteString(Unified(before, after))
	}

	return b.String()
}
