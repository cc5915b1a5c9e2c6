// Package progress renders one progress bar per repository clone or fetch.
package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	// MinColumns is the narrowest terminal that gets progress bars.
	MinColumns = 60
	// OperationLabelLength is the width of the "[clone] " / "[fetch] " prefix.
	OperationLabelLength = 8

	completeChar   = '#'
	incompleteChar = '-'
	failedChar     = '?'
)

// Phases are the sideband phases a git server reports during clone and fetch,
// in order. Each phase owns an equal share of the bar. go-git receives the
// pack and resolves deltas without writing progress lines of its own.
var Phases = []string{"Counting objects", "Compressing objects"}

// Reporter owns the terminal area the bars are drawn in. A nil *Reporter is
// valid and draws nothing.
type Reporter struct {
	mu            sync.Mutex
	out           io.Writer
	columns       int
	maxLabelWidth int
	bars          []*Bar
	done          lipgloss.Style
	failed        lipgloss.Style
	terminated    bool
}

// New returns a reporter drawing to out, or nil when out is not an interactive
// terminal at least MinColumns wide. labels are the display URLs of every
// remote repository in the run and size the shared label column.
func New(out *os.File, labels []string) *Reporter {
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return nil
	}
	columns, _, err := term.GetSize(int(out.Fd()))
	if err != nil {
		return nil
	}
	return NewWithColumns(out, columns, labels)
}

// NewWithColumns returns a reporter for a terminal of the given width, or nil
// if it is too narrow.
func NewWithColumns(out io.Writer, columns int, labels []string) *Reporter {
	if columns < MinColumns {
		return nil
	}
	maxLabel := 0
	for _, l := range labels {
		maxLabel = max(maxLabel, len(l))
	}
	renderer := lipgloss.NewRenderer(out)
	return &Reporter{
		out:           out,
		columns:       columns,
		maxLabelWidth: min(int(math.Ceil(float64(columns-OperationLabelLength)/2)), maxLabel),
		done:          renderer.NewStyle().Foreground(lipgloss.Color("2")),
		failed:        renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// NewBar adds a bar labelled with the repository URL for a clone or fetch.
func (r *Reporter) NewBar(label, operation string) *Bar {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := FormatLabel(label, r.maxLabelWidth, operation)
	ticks := max(r.columns-len(prefix)-2, 1)
	b := &Bar{
		r:          r,
		index:      len(r.bars),
		prefix:     prefix,
		ticks:      ticks,
		scale:      max(0, float64(ticks-1)/float64(ticks)),
		incomplete: incompleteChar,
	}
	r.bars = append(r.bars, b)
	if !r.terminated {
		_, _ = io.WriteString(r.out, b.render()+"\n")
	}
	return b
}

// Terminate stops all drawing, leaving the bars as last rendered.
func (r *Reporter) Terminate() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.terminated = true
	r.mu.Unlock()
}

// FormatLabel builds the fixed part of a bar line. Labels longer than width
// keep their tail behind a "..." marker; shorter ones are padded.
func FormatLabel(label string, width int, operation string) string {
	pad := width - len(label)
	switch {
	case pad < 0:
		label = "..." + label[min(len(label), -pad+3):]
	case pad > 0:
		label += strings.Repeat(" ", pad)
	}
	return fmt.Sprintf("[%s] %s ", operation, label)
}

// redraw rewrites bar b in place. Bars occupy the last len(r.bars) lines.
func (r *Reporter) redraw(b *Bar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminated {
		return
	}
	up := len(r.bars) - b.index
	_, _ = fmt.Fprintf(r.out, "\x1b[%dA\r\x1b[2K%s\x1b[%dB\r", up, b.render(), up)
}
