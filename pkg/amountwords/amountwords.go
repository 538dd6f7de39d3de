// Package amountwords spells rupee amounts in words using the Indian
// numbering system (thousand, lakh, crore), as printed on receipts.
//
//	amountwords.Rupees(120050.5) // "One Lakh Twenty Thousand Fifty Rupees and Fifty Paise Only"
package amountwords

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ones = [...]string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = [...]string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// Rupees converts a non-negative amount to words. Amounts are rounded to
// the nearest paisa; negative or non-finite input is treated as zero.
func Rupees(amount float64) string {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "Zero Rupees Only"
	}

	paise := int64(math.Round(amount * 100))
	whole, frac := paise/100, paise%100

	var parts []string
	if whole > 0 {
		parts = append(parts, Integer(whole), "Rupees")
	}
	if frac > 0 {
		if whole > 0 {
			parts = append(parts, "and")
		}
		parts = append(parts, belowHundred(frac), "Paise")
	}
	if len(parts) == 0 {
		return "Zero Rupees Only"
	}
	return strings.Join(append(parts, "Only"), " ")
}

// Integer spells n in Indian numbering. Values of a hundred crore and
// above repeat the crore unit ("One Hundred Crore").
func Integer(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		return "Minus " + Integer(-n)
	}

	var words []string
	if crore := n / 10_000_000; crore > 0 {
		words = append(words, Integer(crore), "Crore")
		n %= 10_000_000
	}
	if lakh := n / 100_000; lakh > 0 {
		words = append(words, belowHundred(lakh), "Lakh")
		n %= 100_000
	}
	if thousand := n / 1000; thousand > 0 {
		words = append(words, belowHundred(thousand), "Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		words = append(words, ones[hundred], "Hundred")
		n %= 100
	}
	if n > 0 {
		words = append(words, belowHundred(n))
	}
	return strings.Join(words, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + "-" + ones[n%10]
}

// Grouped formats amount with Indian digit grouping, e.g. 1,20,050.50.
// Whole amounts are printed without decimals.
func Grouped(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0"
	}

	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	paise := int64(math.Round(amount * 100))
	digits := strconv.FormatInt(paise/100, 10)

	var b strings.Builder
	b.WriteString(sign)
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		for i, r := range head {
			if i > 0 && (len(head)-i)%2 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(r)
		}
		b.WriteByte(',')
		b.WriteString(tail)
	} else {
		b.WriteString(digits)
	}

	if frac := paise % 100; frac > 0 {
		fmt.Fprintf(&b, ".%02d", frac)
	}
	return b.String()
}
