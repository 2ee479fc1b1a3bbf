// Package assets embeds the demo UI served by "colorstrip serve".
package assets

import (
	"embed"
	"io/fs"
)

//go:embed demo
var demoFS embed.FS

// Demo returns the demo UI rooted at its index.html.
func Demo() (fs.FS, error) {
	return fs.Sub(demoFS, "demo")
}
