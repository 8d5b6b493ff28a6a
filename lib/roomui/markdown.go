// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/pointdeck/pointdeck/lib/tui"
)

// The parser configuration never changes and goldmark parsers are
// safe to share; per-call state lives in the reader.
var (
	topicParserInstance goldmark.Markdown
	topicParserOnce     sync.Once
)

func topicParser() goldmark.Markdown {
	topicParserOnce.Do(func() {
		topicParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return topicParserInstance
}

// renderTopic renders a room topic's markdown as styled terminal
// text. Soft line breaks become spaces so hard-wrapped source reflows
// at any terminal width. Topics are short, so the renderer covers the
// inline and block constructs that actually appear in them:
// paragraphs, headings, emphasis, code (inline and fenced), lists,
// links, and blockquotes. Anything else degrades to its plain text.
func renderTopic(input string, theme tui.Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := topicParser().Parser().Parse(text.NewReader(source))

	// Force an ANSI256 profile: this output is always for terminal
	// display, and auto-detection yields uncolored output when tests
	// run without a TTY.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &topicRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// topicRenderer walks a goldmark AST and accumulates styled terminal
// text. Inline content collects in a buffer and is word-wrapped as a
// unit when the containing block closes.
type topicRenderer struct {
	source []byte
	theme  tui.Theme
	width  int

	output strings.Builder
	inline strings.Builder

	prefix      string
	listCounter []int // Per-depth ordered-list counters; 0 for bullets.
	itemIndents []int // Continuation indent widths per open list item.

	// pendingBullet replaces the prefix for the next flushed line.
	pendingBullet string

	boldCount   int
	italicCount int

	lipRenderer *lipgloss.Renderer
}

func (r *topicRenderer) style() lipgloss.Style {
	return r.lipRenderer.NewStyle()
}

func (r *topicRenderer) contentWidth() int {
	width := r.width - ansi.StringWidth(r.prefix)
	if width < 10 {
		width = 10
	}
	return width
}

func (r *topicRenderer) flushInline() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	wrapped := ansi.Wrap(content, r.contentWidth(), " ,.;-+|")
	for index, line := range strings.Split(wrapped, "\n") {
		prefix := r.prefix
		if index == 0 && r.pendingBullet != "" {
			prefix = r.pendingBullet
			r.pendingBullet = ""
		}
		r.output.WriteString(prefix + line + "\n")
	}
}

func (r *topicRenderer) styledText(content string) string {
	style := r.style().Foreground(r.theme.NormalText)
	if r.boldCount > 0 {
		style = style.Bold(true)
	}
	if r.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

func (r *topicRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushInline()
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
		} else {
			content := ansi.Strip(r.inline.String())
			r.inline.Reset()
			if content != "" {
				bold := r.style().Bold(true).Foreground(r.theme.HeaderForeground)
				r.output.WriteString(r.prefix + bold.Render(content) + "\n")
			}
		}

	case ast.KindFencedCodeBlock:
		if entering {
			r.renderFencedCode(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.prefix += "│ "
		} else {
			r.prefix = strings.TrimSuffix(r.prefix, "│ ")
		}

	case ast.KindList:
		if entering {
			start := 0
			if list := node.(*ast.List); list.IsOrdered() {
				start = list.Start
			}
			r.listCounter = append(r.listCounter, start)
		} else {
			r.listCounter = r.listCounter[:len(r.listCounter)-1]
		}

	case ast.KindListItem:
		if entering {
			r.enterListItem()
		} else {
			r.leaveListItem()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			r.inline.WriteString(r.styledText(string(textNode.Segment.Value(r.source))))
			if textNode.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			r.boldCount += delta
		} else {
			r.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(r.source))
				}
			}
			faint := r.style().Foreground(r.theme.FaintText)
			r.inline.WriteString(faint.Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		// Link text renders through its Text children; the URL
		// trails it in faint parentheses when the link closes.
		if !entering {
			if url := string(node.(*ast.Link).Destination); url != "" {
				faint := r.style().Foreground(r.theme.FaintText)
				r.inline.WriteString(" " + faint.Render("("+url+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			faint := r.style().Foreground(r.theme.FaintText)
			r.inline.WriteString(faint.Render(string(node.(*ast.AutoLink).URL(r.source))))
		}
	}

	return ast.WalkContinue, nil
}

func (r *topicRenderer) enterListItem() {
	depth := len(r.listCounter) - 1
	if depth < 0 {
		return
	}
	bullet := "- "
	if r.listCounter[depth] > 0 {
		bullet = fmt.Sprintf("%d. ", r.listCounter[depth])
		r.listCounter[depth]++
	}
	r.pendingBullet = r.prefix + bullet
	r.itemIndents = append(r.itemIndents, len(bullet))
	r.prefix += strings.Repeat(" ", len(bullet))
}

func (r *topicRenderer) leaveListItem() {
	if len(r.itemIndents) == 0 {
		return
	}
	indent := r.itemIndents[len(r.itemIndents)-1]
	r.itemIndents = r.itemIndents[:len(r.itemIndents)-1]
	r.prefix = r.prefix[:len(r.prefix)-indent]
}

func (r *topicRenderer) renderFencedCode(node *ast.FencedCodeBlock) {
	language := string(node.Language(r.source))
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(r.source))
	}

	highlighted := r.highlight(code.String(), language)
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		r.output.WriteString(r.prefix + line + "\n")
	}
}

// highlight syntax-highlights code with chroma, falling back to faint
// plain text for unknown languages.
func (r *topicRenderer) highlight(code, language string) string {
	if language == "" {
		return r.style().Foreground(r.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return r.style().Foreground(r.theme.FaintText).Render(code)
	}
	return buffer.String()
}
