// Package hazard classifies avalanche-terrain imagery into hazard categories
// and maps categories to traversal costs.
package hazard

import "image/color"

// Hazard categories in ascending order of danger. The value is the index into
// Palette and into the cost tables.
const (
	NoHazard           = iota // transparent, no avalanche terrain
	Runout3Plus               // light yellow, runout of 3+ avalanches
	RunoutRemoteLow           // light blue, runout, remote trigger low
	RunoutRemoteMedium        // dark blue, runout, remote trigger medium
	TriggerLow                // pink, trigger potential 0.1
	TriggerModerate           // orange, trigger potential 0.25
	TriggerHigh               // red, trigger potential 0.5
	TriggerVeryHigh           // dark red, trigger potential 1.0
	Extreme50                 // grey, extreme terrain steeper than 50 degrees
	Extreme60                 // dark grey, extreme terrain steeper than 60 degrees
)

// Palette holds the RGBA colour of each category in the classified
// avalanche-terrain layer.
var Palette = [...]color.NRGBA{
	NoHazard:           {0, 0, 0, 0},
	Runout3Plus:        {244, 243, 124, 192},
	RunoutRemoteLow:    {124, 215, 251, 192},
	RunoutRemoteMedium: {50, 143, 252, 192},
	TriggerLow:         {247, 147, 191, 192},
	TriggerModerate:    {240, 128, 82, 192},
	TriggerHigh:        {220, 43, 43, 192},
	TriggerVeryHigh:    {114, 0, 0, 192},
	Extreme50:          {104, 104, 104, 192},
	Extreme60:          {50, 50, 50, 192},
}

// Classify returns the category whose palette colour is nearest to c by
// Euclidean distance in RGBA space. Lossy compression means exact matches
// are not required. Ties resolve to the lower category.
func Classify(c color.NRGBA) int {
	best, bestDist := 0, -1
	for i, p := range Palette {
		dr := int(c.R) - int(p.R)
		dg := int(c.G) - int(p.G)
		db := int(c.B) - int(p.B)
		da := int(c.A) - int(p.A)
		d := dr*dr + dg*dg + db*db + da*da
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
