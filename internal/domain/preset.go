package domain

import (
	"fmt"
	"strings"
)

// Preset is a named focus/break combination.
type Preset struct {
	Name         string
	FocusMinutes int
	BreakMinutes int
}

// Presets lists the built-in interval combinations.
var Presets = []Preset{
	{Name: "classic", FocusMinutes: 25, BreakMinutes: 5},
	{Name: "long", FocusMinutes: 50, BreakMinutes: 10},
	{Name: "short", FocusMinutes: 15, BreakMinutes: 3},
}

// FindPreset looks up a preset by name, case-insensitively.
func FindPreset(name string) (Preset, error) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q: must be one of classic, long, short", name)
}

// Label returns e.g. "classic (25/5)".
func (p Preset) Label() string {
	return fmt.Sprintf("%s (%d/%d)", p.Name, p.FocusMinutes, p.BreakMinutes)
}
