package form

import "strings"

// digits keeps at most max ASCII digits of s.
func digits(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if b.Len() == max {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone applies the progressive (DD) NNNN-NNNN / (DD) NNNNN-NNNN mask.
func FormatPhone(raw string) string {
	d := digits(raw, 11)
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// FormatCPF applies the progressive NNN.NNN.NNN-NN mask.
func FormatCPF(raw string) string {
	d := digits(raw, 11)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}
