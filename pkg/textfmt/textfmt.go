// Package textfmt derives the display and narration forms of a plant
// description.
package textfmt

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultLabels are the section labels used when none are configured.
var DefaultLabels = []string{
	"Family:",
	"Origin:",
	"Growth Habit:",
	"Light Required:",
	"Water Required:",
	"Soil Condition:",
	"Uses:",
}

// Formatter turns raw descriptions into narration-ready text.
// It is immutable and safe for concurrent use.
type Formatter struct {
	labels *strings.Replacer
}

// New creates a Formatter that rewrites the given colon-terminated labels
// to end in a comma. Labels without a trailing colon get one appended.
func New(labels []string) *Formatter {
	pairs := make([]string, 0, 2*len(labels)+2)
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if !strings.HasSuffix(l, ":") {
			l += ":"
		}
		pairs = append(pairs, l, strings.TrimSuffix(l, ":")+",")
	}
	// Semicolons trip up list pronunciation in most engines.
	pairs = append(pairs, ";", ",")
	return &Formatter{labels: strings.NewReplacer(pairs...)}
}

// Default returns a Formatter for DefaultLabels.
func Default() *Formatter {
	return New(DefaultLabels)
}

// Narration returns the speakable form of raw: markup stripped, line
// breaks turned into sentence boundaries, semicolons turned into commas
// and section labels ending in a comma.
func (f *Formatter) Narration(raw string) string {
	if HasMarkup(raw) {
		raw = StripMarkup(raw)
	}
	lines := Lines(raw)
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			if endsSentence(lines[i-1]) {
				b.WriteString(" ")
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteString(line)
	}
	return f.labels.Replace(b.String())
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// Display returns an HTML rendering of raw. Plain text becomes one
// escaped <p> block per non-empty line; rich text is returned as is.
func Display(raw string) string {
	if HasMarkup(raw) {
		return strings.TrimSpace(raw)
	}
	lines := Lines(raw)
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// DisplayLines returns the visual blocks of raw as plain strings.
func DisplayLines(raw string) []string {
	if HasMarkup(raw) {
		raw = StripMarkup(raw)
	}
	return Lines(raw)
}

// Lines splits s on any line ending and drops blank lines.
func Lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

var tagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?/?>`)

// HasMarkup reports whether s contains at least one HTML tag.
func HasMarkup(s string) bool {
	return tagRe.MatchString(s)
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Tr: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Section: true,
}

// spaceRe matches source whitespace, which HTML renders as one space.
var spaceRe = regexp.MustCompile(`[ \t\r\n\f]+`)

// StripMarkup removes all tags from s and decodes entities. Block-level
// elements become line breaks; script and style content is dropped.
func StripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way keep what we have.
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(spaceRe.ReplaceAll(z.Text(), []byte(" ")))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && tt == html.StartTagToken {
				skip++
			}
			if blockAtoms[a] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			if blockAtoms[a] {
				b.WriteByte('\n')
			}
		}
	}
}
