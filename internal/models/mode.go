package models

import (
	"errors"
	"strings"
)

// Mode is a heating profile of a pilot-wire device.
type Mode string

const (
	ModeConfort    Mode = "Confort"
	ModeEco        Mode = "Eco"
	ModeEcoPlus    Mode = "Eco Plus"
	ModeSleep      Mode = "Sleep"
	ModeAntifreeze Mode = "Antifreeze"

	// ModeOff is reported when the device heats in no mode at all.
	ModeOff Mode = "Off"
	// ModeUnknown stands for a vendor code outside the known table.
	ModeUnknown Mode = "Unknown"
)

// ErrInvalidMode is returned when a mode name does not match a selectable mode.
var ErrInvalidMode = errors.New("invalid mode: must be one of Confort, Eco, Eco Plus, Sleep, Antifreeze")

var selectableModes = []Mode{ModeConfort, ModeEco, ModeEcoPlus, ModeSleep, ModeAntifreeze}

// SelectableModes returns every mode that can be exposed as an endpoint,
// in their canonical order.
func SelectableModes() []Mode {
	out := make([]Mode, len(selectableModes))
	copy(out, selectableModes)
	return out
}

// Selectable reports whether m may back an endpoint.
func (m Mode) Selectable() bool {
	for _, s := range selectableModes {
		if m == s {
			return true
		}
	}
	return false
}

func (m Mode) String() string { return string(m) }

// ParseMode resolves a user-supplied mode name. Matching ignores case,
// spaces, dashes and underscores, so "eco_plus" resolves to ModeEcoPlus.
func ParseMode(s string) (Mode, error) {
	want := normalizeModeName(s)
	for _, m := range selectableModes {
		if normalizeModeName(string(m)) == want {
			return m, nil
		}
	}
	return "", ErrInvalidMode
}

// ParseModes resolves a list of mode names, dropping duplicates while
// keeping the first occurrence order.
func ParseModes(names []string) ([]Mode, error) {
	seen := make(map[Mode]struct{}, len(names))
	out := make([]Mode, 0, len(names))
	for _, n := range names {
		m, err := ParseMode(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

func normalizeModeName(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
