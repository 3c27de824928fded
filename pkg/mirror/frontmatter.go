package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/notes/pkg/core"
)

const delimiter = "---"

// header is the frontmatter of a mirrored note.
type header struct {
	ID        string    `yaml:"id,omitempty"`
	Title     string    `yaml:"title"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// Encode renders n as Markdown with YAML frontmatter.
func Encode(n core.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	h := header{ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt.UTC(), UpdatedAt: n.UpdatedAt.UTC()}
	if err := encoder.Encode(h); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// Decode parses a mirrored note. A file without frontmatter is a note with no
// id whose title is empty and whose content is the whole file.
func Decode(r io.Reader) (core.Note, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Note{}, err
	}

	if !bytes.HasPrefix(data, []byte(delimiter+"\n")) && !bytes.HasPrefix(data, []byte(delimiter+"\r\n")) {
		return core.Note{Content: string(data)}, nil
	}

	rest := data[len(delimiter):]
	parts := bytes.SplitN(rest, []byte("\n"+delimiter), 2)
	if len(parts) == 1 {
		return core.Note{}, errors.New("frontmatter started but no closing delimiter found")
	}

	var h header
	if err := yaml.Unmarshal(parts[0], &h); err != nil {
		return core.Note{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	content := strings.TrimPrefix(string(parts[1]), "\r\n")
	content = strings.TrimPrefix(content, "\n")

	return core.Note{
		ID:        strings.TrimSpace(h.ID),
		Title:     h.Title,
		Content:   content,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}, nil
}
