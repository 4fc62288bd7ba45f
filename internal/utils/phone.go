package utils

import "strings"

// DigitsOnly strips every non-digit rune from s.
//
//	utils.DigitsOnly("+62 812-1111") // "628121111"
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// InternationalizeID rewrites a local Indonesian number ("08...") to its
// international form ("628..."). Other inputs are returned as digits.
func InternationalizeID(phone string) string {
	d := DigitsOnly(phone)
	if strings.HasPrefix(d, "0") {
		return "62" + d[1:]
	}
	return d
}
