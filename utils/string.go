package utils

import (
	"unicode"
	"unicode/utf8"
)

//AWS error messages start capitalized even though Go error strings do not
func CapitalizeFirstLetter(s string) string {
	if len(s) == 0 {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(r) || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
