package layout

import (
	"fmt"
	"math/rand"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// clockText synthesizes a random two-line time/date string, e.g.
// "3:07 PM\nMarch 14, 2024". Days stop at 28 so any month is valid.
func (g *Generator) clockText(rng *rand.Rand) string {
	hour := 1 + rng.Intn(12)
	minute := rng.Intn(60)
	meridiem := "AM"
	if rng.Intn(2) == 1 {
		meridiem = "PM"
	}
	month := monthNames[rng.Intn(len(monthNames))]
	day := 1 + rng.Intn(28)
	year := 2020 + rng.Intn(7)

	return fmt.Sprintf("%d:%02d %s\n%s %d, %d", hour, minute, meridiem, month, day, year)
}

// clockAnchor returns the clock's anchor point: the centroid of the
// annotated clock region when one exists, else a fixed point near the
// bottom-right corner.
func (g *Generator) clockAnchor() (int, int) {
	if r, ok := g.ann.RegionByLabel("clock"); ok {
		return r.Bbox.Center()
	}
	return g.ann.Screen.Width - 40, g.ann.Screen.Height - 36
}
