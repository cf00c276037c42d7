// internal/app/features/resistance/templates.go
package resistance

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "resistance",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
