package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateExpandNumberedGroups(t *testing.T) {
	p, err := Compile(`(\w+)@(\w+)`, Options{})
	require.NoError(t, err)

	data := []byte("user@host")
	matches := p.FindAll(data)
	require.Len(t, matches, 1)

	tmpl := NewTemplate("$2:$1", false)
	got := tmpl.Expand(matches[0], data, p.SubexpNames())
	assert.Equal(t, "host:user", string(got))
}

func TestTemplateExpandNamedGroup(t *testing.T) {
	p, err := Compile(`(?P<user>\w+)@(?P<host>\w+)`, Options{})
	require.NoError(t, err)

	data := []byte("user@host")
	matches := p.FindAll(data)
	require.Len(t, matches, 1)

	tmpl := NewTemplate("${host}/${user}", false)
	got := tmpl.Expand(matches[0], data, p.SubexpNames())
	assert.Equal(t, "host/user", string(got))
}

func TestTemplateLiteralDollarEscape(t *testing.T) {
	p, err := Compile(`(\w+)`, Options{})
	require.NoError(t, err)

	data := []byte("five")
	matches := p.FindAll(data)
	require.Len(t, matches, 1)

	tmpl := NewTemplate("$$1 costs $1", false)
	got := tmpl.Expand(matches[0], data, p.SubexpNames())
	assert.Equal(t, "$1 costs five", string(got))
}

func TestTemplateEscapeInterpretationBeforeCapture(t *testing.T) {
	p, err := Compile(`(\w+)`, Options{})
	require.NoError(t, err)

	data := []byte("x")
	matches := p.FindAll(data)
	require.Len(t, matches, 1)

	tmpl := NewTemplate(`line1\n$1`, true)
	got := tmpl.Expand(matches[0], data, p.SubexpNames())
	assert.Equal(t, "line1\nx", string(got))
}
