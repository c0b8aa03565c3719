package content

import (
	"database/sql/driver"
	"fmt"
)

// Icon identifies the glyph drawn for a service. The zero value is
// IconMapPin, which is also what unknown stored identifiers decode to.
type Icon uint8

const (
	IconMapPin Icon = iota
	IconFileText
	IconShieldCheck
	IconPenTool
	IconAlertTriangle
	IconFolder
)

var icons = [...]struct {
	name, label, glyph string
}{
	IconMapPin: {"map-pin", "Map Pin",
		`<path d="M20 10c0 6-8 12-8 12s-8-6-8-12a8 8 0 0 1 16 0Z"/><circle cx="12" cy="10" r="3"/>`},
	IconFileText: {"file-text", "File Text",
		`<path d="M14.5 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V7.5L14.5 2z"/><polyline points="14 2 14 8 20 8"/><line x1="16" x2="8" y1="13" y2="13"/><line x1="16" x2="8" y1="17" y2="17"/>`},
	IconShieldCheck: {"shield-check", "Shield Check",
		`<path d="M12 22s8-4 8-10V5l-8-3-8 3v7c0 6 8 10 8 10"/><path d="m9 12 2 2 4-4"/>`},
	IconPenTool: {"pen-tool", "Pen Tool",
		`<path d="m12 19 7-7 3 3-7 7-3-3z"/><path d="m18 13-1.5-7.5L2 2l3.5 14.5L13 18l5-5z"/><path d="m2 2 7.586 7.586"/><circle cx="11" cy="11" r="2"/>`},
	IconAlertTriangle: {"alert-triangle", "Alert Triangle",
		`<path d="m21.73 18-8-14a2 2 0 0 0-3.48 0l-8 14A2 2 0 0 0 4 21h16a2 2 0 0 0 1.73-3Z"/><line x1="12" x2="12" y1="9" y2="13"/><line x1="12" x2="12.01" y1="17" y2="17"/>`},
	IconFolder: {"folder", "Folder",
		`<path d="M4 20h16a2 2 0 0 0 2-2V8a2 2 0 0 0-2-2h-7.93a2 2 0 0 1-1.66-.9l-.82-1.2A2 2 0 0 0 7.93 3H4a2 2 0 0 0-2 2v13c0 1.1.9 2 2 2Z"/>`},
}

// Icons returns every icon in display order.
func Icons() []Icon {
	out := make([]Icon, len(icons))
	for i := range icons {
		out[i] = Icon(i)
	}
	return out
}

// ParseIcon returns the icon with the given identifier.
func ParseIcon(s string) (Icon, error) {
	for i, ic := range icons {
		if ic.name == s {
			return Icon(i), nil
		}
	}
	return IconMapPin, fmt.Errorf("content: unknown icon %q", s)
}

func (i Icon) valid() bool {
	return int(i) < len(icons)
}

// String returns the stored identifier, e.g. "shield-check".
func (i Icon) String() string {
	if !i.valid() {
		return icons[IconMapPin].name
	}
	return icons[i].name
}

// Label is the human name shown in the admin icon picker.
func (i Icon) Label() string {
	if !i.valid() {
		return icons[IconMapPin].label
	}
	return icons[i].label
}

// Glyph returns the SVG child elements for the icon, drawn on a 24x24
// stroke canvas. Out of range values draw the map pin.
func (i Icon) Glyph() string {
	if !i.valid() {
		return icons[IconMapPin].glyph
	}
	return icons[i].glyph
}

func (i Icon) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText is lenient: unknown identifiers become IconMapPin.
func (i *Icon) UnmarshalText(b []byte) error {
	ic, err := ParseIcon(string(b))
	if err != nil {
		ic = IconMapPin
	}
	*i = ic
	return nil
}

func (i Icon) Value() (driver.Value, error) {
	return i.String(), nil
}

func (i *Icon) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = IconMapPin
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("content: cannot scan %T into Icon", src)
	}
}
