package input

import (
	"fmt"
	"strings"
)

// Button identifies which pointer button is (or was last) held.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonCenter
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonCenter:
		return "center"
	case ButtonRight:
		return "right"
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ParseButton accepts left, center (or middle) and right, case-insensitively.
// The empty string is left.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return ButtonLeft, nil
	case "center", "middle":
		return ButtonCenter, nil
	case "right":
		return ButtonRight, nil
	}
	return ButtonLeft, fmt.Errorf("input: unknown button %q", s)
}
