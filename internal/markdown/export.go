package markdown

import (
	"bytes"
	"strings"
	"time"

	"github.com/starford/catatan/internal/codec"
	"github.com/starford/catatan/internal/editor"
	"github.com/starford/catatan/internal/models"
)

// Export renders n as Markdown. The body follows the editor block order:
// text blocks, then the checklist group, then images.
func Export(n *models.Note, loc *time.Location) ([]byte, error) {
	fm := Frontmatter{
		Title:    n.Title,
		Progress: string(n.Progress),
		Category: string(n.Category),
		Target:   codec.FormatTarget(n.Target),
	}
	if ns, ok := n.DueDate.Get(); ok {
		fm.Due = codec.DecodeDueDateForEdit(ns, loc)
	}

	var buf bytes.Buffer
	if err := writeFrontmatter(&buf, fm); err != nil {
		return nil, err
	}

	var prev editor.Kind
	first := true
	for _, b := range editor.Decode(n) {
		line, ok := renderBlock(b)
		if !ok {
			continue
		}
		if !first {
			// Consecutive items of one list stay tight.
			if b.Kind == prev && isListKind(b.Kind) {
				buf.WriteString("\n")
			} else {
				buf.WriteString("\n\n")
			}
		}
		buf.WriteString(line)
		prev, first = b.Kind, false
	}
	if !first {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func isListKind(k editor.Kind) bool {
	return k == editor.KindBulletItem || k == editor.KindChecklistItem
}

func renderBlock(b editor.Block) (string, bool) {
	switch b.Kind {
	case editor.KindImage:
		if b.Image == nil {
			return "", false
		}
		return "![](" + b.Image.URL() + ")", true
	case editor.KindChecklistItem:
		box := "[ ]"
		if b.Checked {
			box = "[x]"
		}
		if b.Text == "" {
			return "- " + box, true
		}
		return "- " + box + " " + renderLines(b.Text, "  "), true
	}

	text := strings.TrimSpace(b.Text)
	if text == "" {
		return "", false
	}
	switch b.Kind {
	case editor.KindHeading:
		body := emphasize(renderLines(text, ""), b.Bold, b.Italic)
		if strings.Contains(text, "\n") {
			// ATX headings are single-line; setext keeps the breaks.
			return body + "\n===", true
		}
		return "# " + body, true
	case editor.KindBulletItem:
		return "- " + emphasize(renderLines(text, "  "), b.Bold, b.Italic), true
	default:
		return emphasize(renderLines(text, ""), b.Bold, b.Italic), true
	}
}

// renderLines escapes each line of s and joins them with hard breaks.
// Continuation lines are prefixed with indent so list items stay whole.
func renderLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteString(indent)
		}
		line = escapeLineStart(escapeInline(line))
		sb.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		if strings.HasSuffix(line, `\`) {
			// goldmark reads `\\` + newline as text, not a break.
			sb.WriteString("  \n")
		} else {
			sb.WriteString("\\\n")
		}
	}
	return sb.String()
}

func emphasize(text string, bold, italic bool) string {
	if italic {
		text = "_" + text + "_"
	}
	if bold {
		text = "**" + text + "**"
	}
	return text
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`,
	"~", `\~`, "#", `\#`,
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

// escapeLineStart keeps a line from being read as the start of another
// block.
func escapeLineStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '-', '+', '>', '=', '~':
		return `\` + s
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if i > 0 && (c == '.' || c == ')') {
			return s[:i] + `\` + s[i:]
		}
		break
	}
	return s
}
