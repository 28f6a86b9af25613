package gizwits

import (
	"errors"
	"testing"

	"heatzy_bridge/internal/models"
)

func TestWriteCodes(t *testing.T) {
	cases := map[models.Mode]int{
		models.ModeConfort:    0,
		models.ModeEco:        4,
		models.ModeEcoPlus:    5,
		models.ModeSleep:      1,
		models.ModeAntifreeze: 2,
		models.ModeOff:        3,
	}
	for m, want := range cases {
		got, err := WriteCode(m)
		if err != nil {
			t.Fatalf("WriteCode(%q): %v", m, err)
		}
		if got != want {
			t.Errorf("WriteCode(%q) = %d, want %d", m, got, want)
		}
	}
	if _, err := WriteCode(models.ModeUnknown); !errors.Is(err, models.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestDecodeMode(t *testing.T) {
	cases := map[string]models.Mode{
		"cft":  models.ModeConfort,
		"cft1": models.ModeEco,
		"cft2": models.ModeEcoPlus,
		"eco":  models.ModeSleep,
		"fro":  models.ModeAntifreeze,
		"stop": models.ModeOff,
	}
	for code, want := range cases {
		got, err := DecodeMode(code)
		if err != nil {
			t.Fatalf("DecodeMode(%q): %v", code, err)
		}
		if got != want {
			t.Errorf("DecodeMode(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestDecodeMode_Unknown(t *testing.T) {
	got, err := DecodeMode("xyz")
	if got != models.ModeUnknown {
		t.Fatalf("got %q, want Unknown", got)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Code != "xyz" {
		t.Fatalf("expected DecodeError for xyz, got %v", err)
	}
}

// Eco is written as 4 but read back as cft1, while the read code "eco"
// means Sleep.
func TestEcoRoundTripIsAsymmetric(t *testing.T) {
	code, _ := WriteCode(models.ModeEco)
	if code != 4 {
		t.Fatalf("Eco write code = %d", code)
	}
	if m, _ := DecodeMode("cft1"); m != models.ModeEco {
		t.Fatalf("cft1 decoded to %q", m)
	}
	if m, _ := DecodeMode("eco"); m != models.ModeSleep {
		t.Fatalf("eco decoded to %q", m)
	}
}
