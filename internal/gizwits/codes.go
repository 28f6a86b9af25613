package gizwits

import (
	"fmt"

	"heatzy_bridge/internal/models"
)

// OffCode is the control value that switches a device off.
const OffCode = 3

// writeCodes maps a mode to the integer accepted by the control endpoint.
var writeCodes = map[models.Mode]int{
	models.ModeConfort:    0,
	models.ModeSleep:      1,
	models.ModeAntifreeze: 2,
	models.ModeOff:        OffCode,
	models.ModeEco:        4,
	models.ModeEcoPlus:    5,
}

// readCodes maps the short code reported by the latest-state endpoint.
// It is not the inverse of writeCodes: "eco" reads back as Sleep and Eco
// is reported as "cft1".
var readCodes = map[string]models.Mode{
	"cft":  models.ModeConfort,
	"cft1": models.ModeEco,
	"cft2": models.ModeEcoPlus,
	"eco":  models.ModeSleep,
	"fro":  models.ModeAntifreeze,
	"stop": models.ModeOff,
}

// WriteCode returns the control value for m.
func WriteCode(m models.Mode) (int, error) {
	code, ok := writeCodes[m]
	if !ok {
		return 0, fmt.Errorf("no control code for mode %q: %w", m, models.ErrInvalidMode)
	}
	return code, nil
}

// DecodeMode maps a reported code to a mode. Unknown codes decode to
// models.ModeUnknown together with a *DecodeError.
func DecodeMode(code string) (models.Mode, error) {
	m, ok := readCodes[code]
	if !ok {
		return models.ModeUnknown, &DecodeError{Code: code}
	}
	return m, nil
}
