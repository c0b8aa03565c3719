// Package markdown renders blog post bodies to HTML as templ components.
package markdown

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"math"
	"net/url"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

var (
	md     goldmark.Markdown
	mdOnce sync.Once
)

func renderer() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(util.Prioritized(linkTransformer{}, 100)),
			),
		)
	})
	return md
}

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderMarkdown(&buf, content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the HTML for content to buf. Raw HTML in the source
// is dropped.
func RenderMarkdown(buf *bytes.Buffer, content string) error {
	return renderer().Convert([]byte(content), buf)
}

// HTML renders content for use inside html/template.
func HTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, content); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// ReadTime estimates minutes to read content, rounding up. Empty content
// reads as five minutes.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 5
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// linkTransformer opens absolute links in a new tab and lazy-loads images.
type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			if isExternal(string(n.Destination)) {
				n.SetAttributeString("target", []byte("_blank"))
				n.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		case *ast.Image:
			n.SetAttributeString("loading", []byte("lazy"))
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(dest string) bool {
	u, err := url.Parse(dest)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
