package action

import (
	"fmt"
	"strconv"
	"strings"
)

// VK is a Windows virtual-key code. It doubles as the portable key identifier used by
// configuration and the Keyboard interface.
type VK byte

var namedKeys = map[string]VK{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"alt":       0x12,
	"esc":       0x1B,
	"space":     0x20,
	"plus":      0xBB,
	"+":         0xBB,
	"=":         0xBB,
	"minus":     0xBD,
	"-":         0xBD,
	"period":    0xBE,
	".":         0xBE,
	"[":         0xDB,
	"backslash": 0xDC,
	"\\":        0xDC,
	"]":         0xDD,
}

// ParseVK converts a key token (e.g. "w", "F1", "backspace", "\\") into a virtual-key
// code. Unknown tokens are an error.
func ParseVK(key string) (VK, error) {
	raw := strings.TrimSpace(key)
	if raw == "" {
		return 0, fmt.Errorf("empty key name")
	}
	k := strings.ToLower(raw)
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return VK(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return VK(c), nil
		}
	}
	if len(k) >= 2 && k[0] == 'f' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 24 {
			return VK(0x70 + n - 1), nil // VK_F1=0x70
		}
	}
	return 0, fmt.Errorf("unknown key %q", key)
}

// MustParseVK is ParseVK for compile-time constant names.
func MustParseVK(key string) VK {
	vk, err := ParseVK(key)
	if err != nil {
		panic(err)
	}
	return vk
}

func (v VK) String() string {
	switch {
	case v >= 'A' && v <= 'Z':
		return string(rune(v - 'A' + 'a'))
	case v >= '0' && v <= '9':
		return string(rune(v))
	case v >= 0x70 && v <= 0x87:
		return "F" + strconv.Itoa(int(v-0x70)+1)
	}
	for _, name := range [...]string{"backspace", "tab", "enter", "shift", "ctrl", "alt", "esc", "space", "plus", "minus", "period", "[", "backslash", "]"} {
		if namedKeys[name] == v {
			return name
		}
	}
	return fmt.Sprintf("vk(0x%02X)", byte(v))
}
