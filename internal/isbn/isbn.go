// Package isbn canonicalizes and classifies ISBN-like strings.
//
// Catalog records sometimes carry ISBN-10s with one or two leading zeros
// truncated, so classification retries validation after re-padding before
// giving up. This is the only place padding happens; everything downstream
// consumes the canonical form as-is.
package isbn

import (
	"strings"
)

// Classification tags the result of classifying an ISBN-like string.
type Classification string

const (
	ISBN10  Classification = "isbn10"
	ISBN13  Classification = "isbn13"
	Invalid Classification = "invalid"
)

// ISBN is a canonicalized identifier plus its classification.
type ISBN struct {
	Canon  string
	Type   Classification
	Masked string
}

// Canon strips an ISBN-like string down to its digits and check character.
func Canon(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// Classify canonicalizes raw and determines its type. ISBN-10 validity is
// tested first on the canonical string, then after prepending one and two
// zeros; ISBN-13 is tested last. Strings that validate as nothing come back
// tagged Invalid with the canonical string unmodified — never an error.
func Classify(raw string) ISBN {
	canon := Canon(raw)

	switch {
	case validISBN10(canon):
		return ISBN{Canon: canon, Type: ISBN10, Masked: Mask(canon)}
	case validISBN10("0" + canon):
		padded := "0" + canon
		return ISBN{Canon: padded, Type: ISBN10, Masked: Mask(padded)}
	case validISBN10("00" + canon):
		padded := "00" + canon
		return ISBN{Canon: padded, Type: ISBN10, Masked: Mask(padded)}
	case validISBN13(canon):
		return ISBN{Canon: canon, Type: ISBN13, Masked: Mask(canon)}
	}
	return ISBN{Canon: canon, Type: Invalid}
}

// validISBN10 checks the ISBN-10 mod-11 check digit.
func validISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		var v int
		switch {
		case s[i] >= '0' && s[i] <= '9':
			v = int(s[i] - '0')
		case s[i] == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += (10 - i) * v
	}
	return sum%11 == 0
}

// validISBN13 checks the ISBN-13 mod-10 check digit.
func validISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		v := int(s[i] - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

// Mask hyphenates a canonical ISBN for display. Only the coarse prefix and
// check-digit boundaries are split; full registration-group masking needs
// range tables the pipeline has no use for.
func Mask(canon string) string {
	switch len(canon) {
	case 10:
		return canon[:1] + "-" + canon[1:9] + "-" + canon[9:]
	case 13:
		return canon[:3] + "-" + canon[3:4] + "-" + canon[4:12] + "-" + canon[12:]
	}
	return canon
}
