package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML(t *testing.T) {
	e := NewTextExtractor()

	html := `<html><head><title>T</title><style>p{color:red}</style></head>
<body><script>alert(1)</script><h1>Invoice&nbsp;ready</h1><p>Hello   there,</p>
<div>Your total is <b>$10</b>.&#8203;</div><ul><li>One</li><li>Two</li></ul></body></html>`

	text, err := e.FromHTML(html)
	require.NoError(t, err)

	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.Contains(t, text, "Hello there,")
	assert.Contains(t, text, "Your total is $10.")
	assert.Contains(t, text, "One")
	assert.NotContains(t, text, "\u200b")
	assert.NotContains(t, text, "\n\n\n")
}

func TestFromHTMLEmpty(t *testing.T) {
	text, err := NewTextExtractor().FromHTML("   ")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestClean(t *testing.T) {
	e := NewTextExtractor()
	in := "  Hi\t team \r\n\r\n\r\n\r\nLine  two  \n\n"
	assert.Equal(t, "Hi team\n\nLine two", e.Clean(in))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "привет", Truncate("привет мир", 6))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
