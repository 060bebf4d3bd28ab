package validate

import "strings"

// IsIMEI reports whether candidate is a well-formed IMEI: exactly 15
// digits whose Luhn checksum is divisible by 10.
func IsIMEI(candidate string) bool {
	s := strings.TrimSpace(candidate)
	if len(s) != 15 {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return luhnOK(s)
}

// luhnOK runs the Luhn mod-10 check: walking from the rightmost digit,
// every second digit is doubled (minus 9 when the double exceeds 9) and
// the total must end in zero.
func luhnOK(number string) bool {
	total := 0
	for i := 0; i < len(number); i++ {
		d := int(number[len(number)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
	}
	return total%10 == 0
}
