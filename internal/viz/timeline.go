package viz

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/LeeOHzzZ/HMCOS/internal/lifetime"
)

// Rect is one filled rectangle on the timeline plot: an arena allocation's
// [X, X+Width) op-position span at byte offset [Y, Y+Height). Callers
// supply the rectangles (arena.Simulate returns only the high-water mark,
// not its placements); this package only draws them.
type Rect struct {
	X, Y, Width, Height float64
	Color               string
}

const pythonPreamble = "import matplotlib as mpl\nimport matplotlib.pyplot as plt\n\n"

// RenderTimeline emits a matplotlib script plotting arenaAllocs against
// stat's op-position window and shells out to python3 to run it. A missing
// python3 binary is returned as a non-fatal error; the script is still
// written.
func RenderTimeline(name, dir string, stat lifetime.LifetimeStat, arenaAllocs []Rect) error {
	xMin, xMax := float64(stat.Begin), float64(stat.End)
	yMin, yMax := 0.0, 0.0
	for _, r := range arenaAllocs {
		if r.X < xMin {
			xMin = r.X
		}
		if r.X+r.Width > xMax {
			xMax = r.X + r.Width
		}
		if r.Y < yMin {
			yMin = r.Y
		}
		if r.Y+r.Height > yMax {
			yMax = r.Y + r.Height
		}
	}

	var sb strings.Builder
	sb.WriteString(pythonPreamble)
	sb.WriteString("mpl.rcParams['figure.figsize'] = (8, 6)\n")
	sb.WriteString("mpl.rcParams['figure.dpi'] = 150\n")
	sb.WriteString("ax = plt.gca()\n")
	sb.WriteString(fmt.Sprintf("plt.xlim(%g, %g)\n", xMin, xMax))
	sb.WriteString(fmt.Sprintf("plt.ylim(%g, %g)\n", yMin, yMax))
	for _, r := range arenaAllocs {
		color := r.Color
		if color == "" {
			color = "steelblue"
		}
		sb.WriteString(fmt.Sprintf("ax.add_patch(plt.Rectangle((%g, %g), %g, %g, facecolor=%q))\n",
			r.X, r.Y, r.Width, r.Height, color))
	}

	pyPath := filepath.Join(dir, name+".py")
	figPath := filepath.Join(dir, name+".png")
	sb.WriteString(fmt.Sprintf("plt.savefig(%q)\n", figPath))

	if err := os.WriteFile(pyPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing timeline script: %w", err)
	}

	if err := checkTool("python3"); err != nil {
		return err
	}
	cmd := exec.Command("python3", pyPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("timeline render failed: %w\noutput: %s", err, out)
	}
	return nil
}
