package render

import (
	"fmt"
	"strings"
)

// Mode selects how a correlated model is presented.
type Mode int

const (
	ModeUnified Mode = iota
	ModeSideBySide
)

func (m Mode) String() string {
	switch m {
	case ModeUnified:
		return "unified"
	case ModeSideBySide:
		return "side-by-side"
	default:
		return "unknown"
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeUnified {
		return ModeSideBySide
	}
	return ModeUnified
}

// ParseMode accepts "unified" and "side-by-side" plus a couple of short forms.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unified", "u", "":
		return ModeUnified, nil
	case "side-by-side", "sidebyside", "split", "s":
		return ModeSideBySide, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
