package mirror

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notes/pkg/core"
)

func TestEncodeDecode(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	n := core.Note{
		ID:        "0190f7c2-0000-7000-8000-000000000001",
		Title:     "Groceries: weekly",
		Content:   "milk\n---\neggs\n",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}

	data, err := Encode(n)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\nid: 0190f7c2"))

	got, err := Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.Content, got.Content, "a rule inside the body is not a delimiter")
	assert.True(t, got.CreatedAt.Equal(n.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(n.UpdatedAt))
}

func TestDecode(t *testing.T) {
	t.Run("No frontmatter", func(t *testing.T) {
		n, err := Decode(strings.NewReader("just text"))
		require.NoError(t, err)
		assert.Empty(t, n.ID)
		assert.Equal(t, "just text", n.Content)
	})

	t.Run("CRLF", func(t *testing.T) {
		n, err := Decode(strings.NewReader("---\r\nid: a\r\ntitle: T\r\n---\r\nbody"))
		require.NoError(t, err)
		assert.Equal(t, "a", n.ID)
		assert.Equal(t, "body", n.Content)
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, err := Decode(strings.NewReader("---\ntitle: x\nbody"))
		assert.Error(t, err)
	})

	t.Run("Malformed yaml", func(t *testing.T) {
		_, err := Decode(strings.NewReader("---\ntitle: [x\n---\nbody"))
		assert.Error(t, err)
	})
}
