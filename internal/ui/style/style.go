// Package style holds the colors and icons shared by every kiln surface.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Slate  = lipgloss.Color("#667085")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
)

// Hex returns the raw hex value of a palette color.
func Hex(c lipgloss.Color) string {
	return string(c)
}
