// Package render produces colorized terminal views of a workflow tree.
package render

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

var statusColors = map[domain.Status]string{
	domain.StatusPending:   "#a1a1aa",
	domain.StatusRunning:   "#818cf8",
	domain.StatusCompleted: "#34d399",
	domain.StatusFailed:    "#fb7185",
}

// Tree renders the subtree rooted at rec with box-drawing connectors and a
// color per status, degrading gracefully on dumb terminals.
func Tree(rec *domain.NodeRecord) string {
	if rec == nil {
		return ""
	}
	p := termenv.ColorProfile()
	var b strings.Builder
	b.WriteString(line(p, rec))
	b.WriteByte('\n')
	renderChildren(&b, p, rec, "")
	return b.String()
}

// PrintBanner outputs the startup banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("                                 _                 _ _ ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  __ _ _ _ ___ _  _ _ _  __| |____ __ _____| | |").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" / _` | '_/ _ \\ || | ' \\/ _` (_-< V  V / -_) | |").Foreground(p.Color("#c084fc"))
	s4 := termenv.String(" \\__, |_| \\___/\\_,_|_||_\\__,_/__/\\_/\\_/\\___|_|_|").Foreground(p.Color("#e879f9"))
	s5 := termenv.String(" |___/                                          ").Foreground(p.Color("#f472b6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}

func renderChildren(b *strings.Builder, p termenv.Profile, rec *domain.NodeRecord, prefix string) {
	children := rec.Children()
	for i, child := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(line(p, child))
		b.WriteByte('\n')
		renderChildren(b, p, child, childPrefix)
	}
}

func line(p termenv.Profile, rec *domain.NodeRecord) string {
	status := rec.Status()
	hex, ok := statusColors[status]
	if !ok {
		hex = "#a1a1aa"
	}
	badge := termenv.String(fmt.Sprintf("[%s]", status)).Foreground(p.Color(hex))
	return fmt.Sprintf("%s %s", rec.Name, badge)
}
