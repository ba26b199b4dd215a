// ABOUTME: mIRC control-code string builders for colorized notifications.
// ABOUTME: Pure formatting helpers, no I/O.

// Package ircfmt builds IRC-formatted text using mIRC control codes.
package ircfmt

const (
	boldCode  = "\x02"
	colorCode = "\x03"
	resetCode = "\x0f"
)

// Color is a two-digit mIRC color code.
type Color string

const (
	White     Color = "00"
	Black     Color = "01"
	Blue      Color = "02"
	Green     Color = "03"
	Red       Color = "04"
	Brown     Color = "05"
	Purple    Color = "06"
	Orange    Color = "07"
	Yellow    Color = "08"
	LightCyan Color = "11"
	Grey      Color = "14"
)

// Bold wraps s in bold markers.
func Bold(s string) string {
	return boldCode + s + boldCode
}

// Colored wraps s in the given foreground color, resetting afterwards.
func Colored(s string, c Color) string {
	return colorCode + string(c) + s + resetCode
}

// Status colors a tracker status string: green for terminal/okay states, red
// otherwise, matching the convention the notifications have always used.
func Status(s string, ok bool) string {
	if ok {
		return Colored(s, Green)
	}
	return Colored(s, Red)
}

// Strip removes the control codes this package emits, for plain-text reuse
// (logs, re-scanning outbound messages).
func Strip(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case boldCode[0], resetCode[0]:
			continue
		case colorCode[0]:
			// Skip up to two digits, then an optional ",NN" background.
			j := i + 1
			for n := 0; n < 2 && j < len(s) && isDigit(s[j]); n++ {
				j++
			}
			if j < len(s) && s[j] == ',' && j+1 < len(s) && isDigit(s[j+1]) {
				j += 2
				if j < len(s) && isDigit(s[j]) {
					j++
				}
			}
			i = j - 1
			continue
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
