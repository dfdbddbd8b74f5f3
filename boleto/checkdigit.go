package boleto

// Mod10 returns the modulo 10 check digit of digits. Weights alternate 2 and 1
// from the rightmost digit; two-digit products contribute the sum of their digits.
func Mod10(digits string) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		p := int(digits[i]-'0') * weight
		sum += p/10 + p%10
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	dv := 10 - sum%10
	if dv == 10 {
		return 0
	}
	return dv
}

// mod11Remainder weighs digits from the right with 2..maxWeight (cycling)
// and returns the sum modulo 11.
func mod11Remainder(digits string, maxWeight int) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > maxWeight {
			weight = 2
		}
	}
	return sum % 11
}

// Mod11 returns the general barcode check digit: 11 minus the weighted
// remainder (weights 2..9), where 0, 10 and 11 become 1.
func Mod11(digits string) int {
	dv := 11 - mod11Remainder(digits, 9)
	if dv == 0 || dv > 9 {
		return 1
	}
	return dv
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// onlyDigits strips everything but ASCII digits.
func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// leftPad zero-pads digits to width; it never truncates.
func leftPad(digits string, width int) string {
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits
}
