// Package captcha solves the two-operand arithmetic challenges shown on the
// ecourts search form, e.g. "7 + 5 =".
package captcha

import (
	"fmt"
	"math"
	"math/bits"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// operands may be written in any decimal script, the portal's regional pages
// render devanagari digits.
var expressionRegex = regexp.MustCompile(`(\p{Nd}+)\s*([+\-*/])\s*(\p{Nd}+)`)

// UnparsableError is returned when a challenge is not a supported arithmetic
// expression. Raw holds the challenge text as it was read from the page.
type UnparsableError struct {
	Raw    string
	Reason string
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("unparsable captcha %q: %s", e.Raw, e.Reason)
}

// Solve evaluates the first `<int> <op> <int>` expression found in raw.
// Division floors, division by zero and results that do not fit in an int are
// unparsable.
func Solve(raw string) (int, error) {
	match := expressionRegex.FindStringSubmatch(raw)
	if match == nil {
		return 0, &UnparsableError{Raw: raw, Reason: "no arithmetic expression found"}
	}

	left, err := parseOperand(match[1])
	if err != nil {
		return 0, &UnparsableError{Raw: raw, Reason: err.Error()}
	}
	right, err := parseOperand(match[3])
	if err != nil {
		return 0, &UnparsableError{Raw: raw, Reason: err.Error()}
	}

	result, ok := 0, true
	switch match[2] {
	case "+":
		result, ok = add(left, right)
	case "-":
		result = left - right
	case "*":
		result, ok = multiply(left, right)
	case "/":
		if right == 0 {
			return 0, &UnparsableError{Raw: raw, Reason: "division by zero"}
		}
		result = floorDiv(left, right)
	default:
		return 0, &UnparsableError{Raw: raw, Reason: fmt.Sprintf("unsupported operator %q", match[2])}
	}
	if !ok {
		return 0, &UnparsableError{Raw: raw, Reason: "result overflows"}
	}
	return result, nil
}

// parseOperand converts a run of decimal digits from any script into an int.
func parseOperand(digits string) (int, error) {
	ascii := strings.Map(func(r rune) rune {
		return '0' + rune(digitValue(r))
	}, digits)
	return strconv.Atoi(ascii)
}

// decimal digits are encoded in contiguous runs of whole 0-9 blocks, so the
// value of a digit is its offset from the start of its run modulo 10.
func digitValue(r rune) int {
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}

// operands are never negative since the regex has no sign.
func add(a, b int) (int, bool) {
	sum := a + b
	return sum, sum >= a
}

func multiply(a, b int) (int, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// the adjustment only matters if signed operands are ever accepted.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
