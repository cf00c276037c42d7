// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// breaks allows nothing but <br>, which MessageHTML inserts itself.
var breaks = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")
	return p
}()

// MessageHTML renders free text for display: all markup is escaped and line
// breaks become <br>.
func MessageHTML(s string) template.HTML {
	if s == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(breaks.Sanitize(strings.ReplaceAll(escaped, "\n", "<br>")))
}
