package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/asora/internal/grid"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != blank|0x1 {
		t.Errorf("cell 0 = %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != blank|0x80 {
		t.Errorf("cell 1 = %U", c.Grid[0][1])
	}

	c.Clear()
	if c.String() != string([]rune{blank, blank})+"\n" {
		t.Errorf("clear left %q", c.String())
	}
}

func TestSliceMap(t *testing.T) {
	g := grid.New(4)
	g.Set(1, 2, 3, 5)
	g.Set(2, 2, 3, 1)

	c := SliceMap(g, 2, 3, 2)
	if c.Width != 2 || c.Height != 1 {
		t.Fatalf("canvas %dx%d", c.Width, c.Height)
	}
	// cell (1,2) lights column 0, sub-pixel (1,2)
	if c.Grid[0][0] != blank|0x20 {
		t.Errorf("slice cell = %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != blank {
		t.Errorf("cell below level drawn: %U", c.Grid[0][1])
	}
}

func TestKeyValuesAligns(t *testing.T) {
	out := KeyValues([]KV{{"n", "32"}, {"sources", "4"}})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(out, "sources") || !strings.Contains(out, "32") {
		t.Errorf("missing content in %q", out)
	}
}

func TestProfilePlot(t *testing.T) {
	if out := ProfilePlot(nil, "x", 20, 5, false); !strings.Contains(out, "no data") {
		t.Errorf("empty plot = %q", out)
	}
	if out := ProfilePlot([]float64{0, 0}, "x", 20, 5, true); !strings.Contains(out, "all values zero") {
		t.Errorf("zero log plot = %q", out)
	}
	out := ProfilePlot([]float64{1e-12, 1e-13, 1e-15}, "phi", 20, 5, true)
	if !strings.Contains(out, "phi") {
		t.Errorf("caption missing in %q", out)
	}
}

func TestSparklineWidth(t *testing.T) {
	if out := Sparkline(nil, 4); out != "────" {
		t.Errorf("empty sparkline = %q", out)
	}
	out := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 4)
	if n := strings.Count(out, "▁") + strings.Count(out, "▃") + strings.Count(out, "▅") + strings.Count(out, "▇"); n != 4 {
		t.Errorf("expected 4 bars in %q", out)
	}
}
