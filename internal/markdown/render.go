package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// Converter turns markdown source into an HTML fragment. Core conversion
// is a black box to the rest of the runtime; the default implementation
// is goldmark with CommonMark defaults.
type Converter interface {
	Convert(source string) (string, error)
}

// goldmarkConverter is the default Converter.
type goldmarkConverter struct {
	md goldmark.Markdown
}

// NewConverter creates the default goldmark-backed converter.
func NewConverter() Converter {
	return &goldmarkConverter{md: goldmark.New()}
}

func (c *goldmarkConverter) Convert(source string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
