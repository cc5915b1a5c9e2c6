package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithColumns_TooNarrow(t *testing.T) {
	assert.Nil(t, NewWithColumns(&bytes.Buffer{}, 59, []string{"https://example.com/repo.git"}))
	assert.NotNil(t, NewWithColumns(&bytes.Buffer{}, 60, []string{"https://example.com/repo.git"}))
}

func TestNilReporterAndBarAreSafe(t *testing.T) {
	var r *Reporter
	b := r.NewBar("https://example.com/repo.git", "clone")
	assert.Nil(t, b)
	n, err := b.Write([]byte("Counting objects: 10% (1/10)\r"))
	require.NoError(t, err)
	assert.Equal(t, 29, n)
	b.Phase("Counting objects", 1, 2)
	b.Complete(nil)
	r.Terminate()
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "[clone] https://a.io/x.git    ", FormatLabel("https://a.io/x.git", 21, "clone"))
	assert.Equal(t, "[fetch] ...mple.com/docs.git ", FormatLabel("https://example.com/docs.git", 20, "fetch"))
	assert.Equal(t, "[clone] exact ", FormatLabel("exact", 5, "clone"))
}

func TestLabelWidth(t *testing.T) {
	r := NewWithColumns(&bytes.Buffer{}, 80, []string{"https://a.io/x.git", "https://example.com/docs.git"})
	require.NotNil(t, r)
	assert.Equal(t, len("https://example.com/docs.git"), r.maxLabelWidth)

	r = NewWithColumns(&bytes.Buffer{}, 60, []string{strings.Repeat("x", 100)})
	require.NotNil(t, r)
	assert.Equal(t, 26, r.maxLabelWidth) // ceil((60-8)/2)
}

func TestRatio(t *testing.T) {
	scale := 0.9
	assert.InDelta(t, 0.0, Ratio(0, 0, 10, scale), 1e-9)
	assert.InDelta(t, 0.225, Ratio(0, 5, 10, scale), 1e-9)
	assert.InDelta(t, 0.45, Ratio(1, 0, 10, scale), 1e-9)
	assert.InDelta(t, scale, Ratio(1, 10, 10, scale), 1e-9)
	assert.LessOrEqual(t, Ratio(1, 20, 10, scale), scale)
}

func TestBar_SidebandAndCompletion(t *testing.T) {
	var out bytes.Buffer
	r := NewWithColumns(&out, 80, []string{"https://example.com/repo.git"})
	require.NotNil(t, r)
	b := r.NewBar("https://example.com/repo.git", "clone")

	// split across writes
	_, _ = b.Write([]byte("Counting obj"))
	_, _ = b.Write([]byte("ects:  50% (5/10)\r"))
	assert.InDelta(t, Ratio(0, 5, 10, b.scale), b.Ratio(), 1e-9)

	_, _ = b.Write([]byte("Compressing objects: 100% (3/3), done.\n"))
	assert.InDelta(t, b.scale, b.Ratio(), 1e-9)
	assert.Less(t, b.Ratio(), 1.0)

	_, _ = b.Write([]byte("Total 5 (delta 0), reused 0\n"))
	assert.InDelta(t, b.scale, b.Ratio(), 1e-9, "unknown lines are ignored")

	b.Complete(nil)
	assert.Equal(t, 1.0, b.Ratio())
	assert.Contains(t, out.String(), "[clone] https://example.com/repo.git [")
	assert.Contains(t, out.String(), strings.Repeat("#", b.ticks))
}

func TestBar_Failure(t *testing.T) {
	var out bytes.Buffer
	r := NewWithColumns(&out, 70, []string{"https://example.com/repo.git"})
	b := r.NewBar("https://example.com/repo.git", "fetch")
	b.Phase("Compressing objects", 1, 2)
	b.Complete(errors.New("boom"))

	assert.Equal(t, 0.0, b.Ratio())
	assert.Contains(t, out.String(), "["+strings.Repeat("?", b.ticks)+"]")
}

func TestTerminateStopsDrawing(t *testing.T) {
	var out bytes.Buffer
	r := NewWithColumns(&out, 70, []string{"https://example.com/repo.git"})
	b := r.NewBar("https://example.com/repo.git", "clone")
	r.Terminate()
	before := out.Len()
	b.Complete(nil)
	assert.Equal(t, before, out.Len())
}

func TestBar_OnlyServerPhasesAdvance(t *testing.T) {
	var out bytes.Buffer
	r := NewWithColumns(&out, 80, []string{"https://example.com/repo.git"})
	require.NotNil(t, r)
	b := r.NewBar("https://example.com/repo.git", "fetch")

	_, _ = b.Write([]byte("Counting objects: 100% (4/4), done.\n"))
	half := b.Ratio()
	assert.InDelta(t, b.scale/2, half, 1e-9)

	_, _ = b.Write([]byte("Receiving objects: 100% (4/4)\r"))
	_, _ = b.Write([]byte("Resolving deltas: 100% (2/2)\r"))
	assert.InDelta(t, half, b.Ratio(), 1e-9)
	assert.Equal(t, []string{"Counting objects", "Compressing objects"}, Phases)
}
