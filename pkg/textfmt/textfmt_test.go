package textfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNarration(t *testing.T) {
	f := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"LabelsAndNewline", "Family: Rosaceae\nOrigin: Asia", "Family, Rosaceae. Origin, Asia"},
		{"Semicolons", "Uses: Tea; dye; garlands", "Uses, Tea, dye, garlands"},
		{"AllLabels", "Growth Habit: Shrub\nLight Required: Sun\nWater Required: Low\nSoil Condition: Sandy", "Growth Habit, Shrub. Light Required, Sun. Water Required, Low. Soil Condition, Sandy"},
		{"LineEndsWithPeriod", "Grows fast.\nNeeds sun", "Grows fast. Needs sun"},
		{"LineEndsWithQuestion", "Edible?\nYes", "Edible? Yes"},
		{"BlankLines", "a\n\n\nb", "a. b"},
		{"CRLF", "a\r\nb", "a. b"},
		{"CaseSensitiveLabels", "family: Rosaceae", "family: Rosaceae"},
		{"Empty", "", ""},
		{"Whitespace", " \n\t\n", ""},
		{"ComparisonSignsAreNotMarkup", "Height < 2 m; width > 1 m", "Height < 2 m, width > 1 m"},
		{"Markup", "<p>Family: Rosaceae</p><p>Origin: Asia &amp; Europe</p>", "Family, Rosaceae. Origin, Asia & Europe"},
		{"MarkupBreak", "Line one<br>Line two", "Line one. Line two"},
		{"MarkupInline", "Valued in <strong>Ayurveda</strong>", "Valued in Ayurveda"},
		{"MarkupScript", "<p>Hi</p><script>alert(1)</script>", "Hi"},
		{"MarkupSourceNewline", "<p>Family:\nRosaceae</p>", "Family, Rosaceae"},
		{"MarkupIndented", "<ul>\n  <li>Uses: Tea</li>\n  <li>Dye</li>\n</ul>", "Uses, Tea. Dye"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Narration(tt.in))
		})
	}
}

func TestNarration_Properties(t *testing.T) {
	f := Default()
	inputs := []string{
		"Family: Meliaceae\nOrigin: India; Myanmar\nUses: Oil; twigs",
		"one\ntwo\nthree;four",
		"\n\n;;\n",
		"<ul><li>Uses: a; b</li><li>c</li></ul>",
		"trailing newline\n",
		"x;\ny;",
	}
	for _, in := range inputs {
		out := f.Narration(in)
		assert.NotContains(t, out, "\n", "input %q", in)
		assert.NotContains(t, out, ";", "input %q", in)
		assert.NotContains(t, out, "<", "input %q", in)
	}
}

func TestNew_CustomLabels(t *testing.T) {
	f := New([]string{"Bloom Season", "Height:", " "})
	assert.Equal(t, "Bloom Season, May. Height, 2 m", f.Narration("Bloom Season: May\nHeight: 2 m"))
	// Default labels are not included unless configured
	assert.Equal(t, "Family: Rosaceae", f.Narration("Family: Rosaceae"))
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Lines", "Family: Rosaceae\nOrigin: Asia", "<p>Family: Rosaceae</p>\n<p>Origin: Asia</p>"},
		{"Escaped", "A & B < C", "<p>A &amp; B &lt; C</p>"},
		{"BlankLinesDropped", "a\n\nb", "<p>a</p>\n<p>b</p>"},
		{"MarkupRetained", "  <p>Rich <em>text</em></p>\n", "<p>Rich <em>text</em></p>"},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.in))
		})
	}
}

func TestDisplay_OneBlockPerLine(t *testing.T) {
	in := "one\ntwo\nthree"
	out := Display(in)
	assert.Equal(t, 3, strings.Count(out, "<p>"))
	assert.Equal(t, []string{"one", "two", "three"}, DisplayLines(in))
}

func TestDisplayLines_Markup(t *testing.T) {
	assert.Equal(t, []string{"Sacred basil", "Grown in courtyards"}, DisplayLines("<p>Sacred basil</p><p>Grown in courtyards</p>"))
	assert.Equal(t, []string{"Sacred basil grown in courtyards"}, DisplayLines("<p>Sacred basil\r\n\tgrown in courtyards</p>"))
	assert.Empty(t, DisplayLines(""))
}

func TestHasMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"<p>x</p>", true},
		{"a<br/>b", true},
		{`<a href="x">y</a>`, true},
		{"1 < 2", false},
		{"a <> b", false},
		{"plain", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasMarkup(tt.in), tt.in)
	}
}
