package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"
)

// Color is an 8-bit RGBA layer color.
type Color struct {
	R, G, B, A uint8
}

var (
	Black = Color{A: 255}
	White = Color{R: 255, G: 255, B: 255, A: 255}
)

// ParseColor accepts any CSS color notation understood by go-playground/colors
// (#rgb, #rrggbb, rgb(), rgba()).
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Black, nil
	}

	c, err := colors.Parse(strings.ToLower(s))
	if err != nil {
		return Color{}, errors.Wrapf(err, "parse color %q", s)
	}

	rgba := c.ToRGBA()
	alpha := rgba.A
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	return Color{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(alpha*255 + 0.5)}, nil
}

// Hex returns the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String returns #rrggbb for opaque colors and #rrggbbaa otherwise.
func (c Color) String() string {
	if c.A == 255 {
		return c.Hex()
	}
	return fmt.Sprintf("%s%02x", c.Hex(), c.A)
}

// MarshalJSON encodes the color as its String form.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a color string.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := parseStored(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes the color as its String form.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// parseStored reads the String form back, including the #rrggbbaa variant
// which CSS parsers do not accept.
func parseStored(s string) (Color, error) {
	if len(s) == 9 && s[0] == '#' {
		var c Color
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return Color{}, errors.Wrapf(err, "parse color %q", s)
		}
		return c, nil
	}
	return ParseColor(s)
}
