// Package markdown converts notes to and from Markdown with YAML
// frontmatter.
package markdown

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/starford/catatan/internal/apperr"
)

// Frontmatter is the metadata header of an exported note.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Progress string `yaml:"progress,omitempty"`
	Category string `yaml:"category,omitempty"`
	Target   string `yaml:"target,omitempty"`
	// Due uses the editor layout 2006-01-02T15:04 in the service zone.
	Due string `yaml:"due,omitempty"`
}

const delim = "---"

// splitFrontmatter separates the YAML header between leading --- lines
// from the Markdown body. Without a closed header the whole input is body.
func splitFrontmatter(data []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, data, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, data, nil
	}

	header := rest[:idx]
	body := bytes.TrimLeft(rest[idx+1+len(delim):], "\n\r")
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, nil, apperr.Invalid("frontmatter", err)
	}
	return fm, body, nil
}

func writeFrontmatter(buf *bytes.Buffer, fm Frontmatter) error {
	out, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}
	buf.WriteString(delim + "\n")
	buf.Write(out)
	buf.WriteString(delim + "\n\n")
	return nil
}
