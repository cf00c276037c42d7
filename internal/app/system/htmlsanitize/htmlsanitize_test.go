package htmlsanitize_test

import (
	"html/template"
	"testing"

	"github.com/chaosempire/chaospanel/internal/app/system/htmlsanitize"
)

func TestMessageHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want template.HTML
	}{
		{"empty", "", ""},
		{"plain", "Grid offline", "Grid offline"},
		{"escapes and breaks", "line one\n<script>x</script>\r\nline three", "line one<br>&lt;script&gt;x&lt;/script&gt;<br>line three"},
		{"tag-like text kept visible", "use <b> here", "use &lt;b&gt; here"},
		{"ampersand", "R&D", "R&amp;D"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := htmlsanitize.MessageHTML(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
