package finance

import (
	"strings"

	"byggmart/internal/common"
)

// OCR references are Swedish payment-matching references: a numeric seed with
// a modulus-10 (Luhn) check digit appended.

const projectSuffixWidth = 4

// CheckDigit computes the mod-10 check digit for a numeric string: digits are
// weighted 2,1,2,1,… from the rightmost digit, products above 9 reduced by
// digit sum, and the checksum is (10 − sum mod 10) mod 10.
func CheckDigit(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		product := int(digits[i]-'0') * weight
		if product > 9 {
			product = product/10 + product%10
		}
		sum += product
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	return (10 - sum%10) % 10
}

// Reference appends the check digit to a numeric seed.
func Reference(seed string) (string, error) {
	if seed == "" {
		return "", common.NewError(common.KindBadRequest, "ocr seed must not be empty")
	}
	for i := 0; i < len(seed); i++ {
		if seed[i] < '0' || seed[i] > '9' {
			return "", common.Errorf(common.KindBadRequest, "ocr seed %q must be numeric", seed)
		}
	}
	return seed + string(rune('0'+CheckDigit(seed))), nil
}

// ValidReference reports whether a reference carries a correct check digit.
func ValidReference(ref string) bool {
	if len(ref) < 2 {
		return false
	}
	for i := 0; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return false
		}
	}
	seed, check := ref[:len(ref)-1], int(ref[len(ref)-1]-'0')
	return CheckDigit(seed) == check
}

// Seed builds the numeric seed for a generated reference: the digits of the
// invoice number followed by the digit suffix of the project number,
// left-padded with zeros to a fixed width so references sort stably within a
// project.
func Seed(invoiceNumber, projectNumber string) string {
	number := digitsOf(invoiceNumber)
	if number == "" {
		number = "0"
	}
	suffix := digitsOf(projectNumber)
	if len(suffix) > projectSuffixWidth {
		suffix = suffix[len(suffix)-projectSuffixWidth:]
	}
	suffix = strings.Repeat("0", projectSuffixWidth-len(suffix)) + suffix
	return number + suffix
}

func digitsOf(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
