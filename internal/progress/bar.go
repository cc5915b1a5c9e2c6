package progress

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var sidebandRx = regexp.MustCompile(`^\s*([A-Za-z ]+?):\s+\d+% \((\d+)/(\d+)\)`)

// Bar tracks the progress of one clone or fetch. It implements io.Writer so it
// can receive git's sideband progress messages directly. A nil *Bar is valid.
type Bar struct {
	r      *Reporter
	index  int
	prefix string
	ticks  int
	// scale keeps the bar one tick short of full until Complete is called.
	scale float64

	mu         sync.Mutex
	ratio      float64
	incomplete rune
	failed     bool
	pending    []byte
}

// Write consumes sideband progress output, e.g.
// "Counting objects:  45% (9/20)\r".
func (b *Bar) Write(p []byte) (int, error) {
	if b == nil {
		return len(p), nil
	}
	b.mu.Lock()
	b.pending = append(b.pending, p...)
	var lines []string
	for {
		i := bytes.IndexAny(b.pending, "\r\n")
		if i < 0 {
			break
		}
		lines = append(lines, string(b.pending[:i]))
		b.pending = b.pending[i+1:]
	}
	b.mu.Unlock()

	for _, line := range lines {
		if m := sidebandRx.FindStringSubmatch(line); m != nil {
			loaded, _ := strconv.Atoi(m[2])
			total, _ := strconv.Atoi(m[3])
			b.Phase(strings.TrimSpace(m[1]), loaded, total)
		}
	}
	return len(p), nil
}

// Phase records loaded/total progress within a named transfer phase. Unknown
// phases are ignored.
func (b *Bar) Phase(phase string, loaded, total int) {
	if b == nil {
		return
	}
	idx := phaseIndex(phase)
	if idx < 0 || total <= 0 {
		return
	}
	b.update(Ratio(idx, loaded, total, b.scale))
}

// Ratio maps progress within phase idx onto the whole bar: each phase owns an
// equal segment, and the result never exceeds scale.
func Ratio(idx, loaded, total int, scale float64) float64 {
	n := float64(len(Phases))
	ratio := float64(loaded) / float64(total) * scale / n
	ratio += float64(idx) * scale / n
	return math.Min(ratio, scale)
}

func phaseIndex(phase string) int {
	for i, p := range Phases {
		if p == phase {
			return i
		}
	}
	return -1
}

// Complete drives the bar to full on success. On failure the remaining part
// of the bar is drawn with '?' and the fill is reset.
func (b *Bar) Complete(err error) {
	if b == nil {
		return
	}
	if err != nil {
		b.mu.Lock()
		b.incomplete = failedChar
		b.failed = true
		b.mu.Unlock()
		b.update(0)
		return
	}
	b.update(1)
}

// Ratio returns the current fill, between 0 and 1.
func (b *Bar) Ratio() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ratio
}

func (b *Bar) update(ratio float64) {
	b.mu.Lock()
	b.ratio = math.Max(0, math.Min(1, ratio))
	b.mu.Unlock()
	b.r.redraw(b)
}

func (b *Bar) render() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	filled := int(math.Round(b.ratio * float64(b.ticks)))
	complete := strings.Repeat(string(completeChar), filled)
	rest := strings.Repeat(string(b.incomplete), b.ticks-filled)
	if b.failed {
		rest = b.r.failed.Render(rest)
	} else if filled == b.ticks {
		complete = b.r.done.Render(complete)
	}
	return b.prefix + "[" + complete + rest + "]"
}
