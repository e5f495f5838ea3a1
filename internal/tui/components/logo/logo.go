// Package logo draws the wordmark shown by empty surfaces.
package logo

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MakeNowJust/heredoc"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/tujuhre12/vstack/internal/tui/styles"
)

var Wordmark = heredoc.Doc(`
    ▌ ▐ ▞▀▀ ▀█▀ ▞▀▚ ▞▀▀ ▌ ▞
    ▚ ▞ ▝▀▚  █  █▀█ ▌   █▀▄
     ▀  ▀▀▘  ▀  ▀ ▀ ▝▀▀ ▀ ▀
`)

const Short = "vstack"

type Logo struct {
	face   []string
	width  int
	height int
}

func Standard() *Logo {
	face := strings.Split(strings.TrimRight(Wordmark, "\n"), "\n")
	w := 0
	for _, line := range face {
		w = max(w, utf8.RuneCountInString(line))
	}
	return &Logo{face: face, width: w, height: len(face)}
}

func (l *Logo) Size() (int, int) {
	return l.width, l.height
}

// Draw paints the wordmark at the top left of area.
func (l *Logo) Draw(scr uv.Screen, area uv.Rectangle) {
	t := styles.CurrentTheme()
	for y, line := range l.face {
		x := 0
		for _, r := range line {
			if !unicode.IsSpace(r) && area.Min.X+x < area.Max.X && area.Min.Y+y < area.Max.Y {
				cell := uv.Cell{
					Style:   uv.Style{Fg: t.Primary},
					Content: string(r),
					Width:   1,
				}
				scr.SetCell(area.Min.X+x, area.Min.Y+y, &cell)
			}
			x++
		}
	}
}

// Render centers the wordmark in a width by height area. Areas too small for
// it get the short name instead.
func (l *Logo) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if width < l.width || height < l.height {
		return ansi.Truncate(Short, width, "")
	}
	scr := uv.NewScreenBuffer(width, height)
	x, y := (width-l.width)/2, (height-l.height)/2
	l.Draw(scr, uv.Rect(x, y, l.width, l.height))
	return scr.Render()
}
