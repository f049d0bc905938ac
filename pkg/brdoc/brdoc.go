// Package brdoc validates Brazilian tax identifiers (CPF and CNPJ) by
// their checksum digits. Both functions are pure: they accept the raw
// digit string (punctuation is stripped first) and return whether the
// two verification digits match the computed checksum.
package brdoc

// stripNonDigits keeps only '0'..'9' from s.
func stripNonDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// IsValidCPF reports whether doc is a valid CPF (11 digits, two
// checksum digits). Strings with all digits equal are rejected even
// though their checksum holds.
func IsValidCPF(doc string) bool {
	doc = stripNonDigits(doc)
	if len(doc) != 11 || allSameDigit(doc) {
		return false
	}

	digits := make([]int, 11)
	for i := range doc {
		digits[i] = int(doc[i] - '0')
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	d1 := (sum * 10) % 11
	if d1 == 10 {
		d1 = 0
	}
	if d1 != digits[9] {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	d2 := (sum * 10) % 11
	if d2 == 10 {
		d2 = 0
	}
	return d2 == digits[10]
}

// IsValidCNPJ reports whether doc is a valid CNPJ (14 digits, two
// checksum digits).
func IsValidCNPJ(doc string) bool {
	doc = stripNonDigits(doc)
	if len(doc) != 14 || allSameDigit(doc) {
		return false
	}

	digits := make([]int, 14)
	for i := range doc {
		digits[i] = int(doc[i] - '0')
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i, w := range weights1 {
		sum += digits[i] * w
	}
	d1 := sum % 11
	if d1 < 2 {
		d1 = 0
	} else {
		d1 = 11 - d1
	}
	if d1 != digits[12] {
		return false
	}

	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i, w := range weights2 {
		sum += digits[i] * w
	}
	d2 := sum % 11
	if d2 < 2 {
		d2 = 0
	} else {
		d2 = 11 - d2
	}
	return d2 == digits[13]
}
