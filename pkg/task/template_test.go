package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("Should substitute slots with parameter values", func(t *testing.T) {
		out, err := Render("Create a note named {file_name} with {count} lines", Params{"file_name": "todo.md", "count": 3})

		require.NoError(t, err)
		assert.Equal(t, "Create a note named todo.md with 3 lines", out)
	})

	t.Run("Should keep escaped braces literal", func(t *testing.T) {
		out, err := Render("Write {{json}} into {file}", Params{"file": "a.txt"})

		require.NoError(t, err)
		assert.Equal(t, "Write {json} into a.txt", out)
	})

	t.Run("Should raise MissingParameterError for an unknown slot", func(t *testing.T) {
		_, err := Render("Open {app}", Params{})

		var missing *MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "app", missing.Key)
	})

	t.Run("Should reject malformed templates", func(t *testing.T) {
		for _, tmpl := range []string{"Open {app", "Open app}", "Open {two words}", "Open {}"} {
			_, err := Render(tmpl, Params{"app": "x"})
			assert.ErrorIs(t, err, ErrMalformedTemplate, tmpl)
		}
	})
}

func TestPlaceholders(t *testing.T) {
	keys, err := Placeholders("{a} and {{b}} and {c_2}")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c_2"}, keys)
}

func TestRewritePlaceholders(t *testing.T) {
	out, err := RewritePlaceholders("Write {text} to {{file}} {file_name}", map[string]string{"text": "text_draw"})

	require.NoError(t, err)
	assert.Equal(t, "Write {text_draw} to {{file}} {file_name}", out)

	rendered, err := Render(out, Params{"text_draw": "hi", "file_name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Write hi to {file} x", rendered)
}
