package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _____     _                 ", "#34d399"},
	{" |_   _| __(_) __ _  __ _  ___ ", "#2dd4bf"},
	{"   | || '__| |/ _` |/ _` |/ _ \\", "#22d3ee"},
	{"   | || |  | | (_| | (_| |  __/", "#38bdf8"},
	{"   |_||_|  |_|\\__,_|\\__, |\\___|", "#60a5fa"},
	{"                    |___/      ", "#818cf8"},
}

// PrintBanner writes the coloured banner followed by the module title.
func PrintBanner(w io.Writer, title string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if title != "" {
		fmt.Fprintln(w, out.String("  "+title).Bold())
	}
	fmt.Fprintln(w)
}
