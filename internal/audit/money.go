package audit

import (
	"strconv"
	"strings"
)

// FormatMoney renders a currency value with thousands separators and two
// decimals, e.g. 1234567.8 becomes "1,234,567.80". Statement remarks and
// leakage narratives all use this form.
func FormatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(whole[i])
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}
