package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// MaxMonths bounds notice and renewal periods.
const MaxMonths = 120

// feePattern fits NUMERIC(12,2): up to ten integer digits and an optional
// one or two digit fraction after a dot or a comma.
var feePattern = regexp.MustCompile(`^\d{1,10}([.,]\d{1,2})?$`)

// ParseFee parses a monetary amount such as "12.99" or "12,99".
func ParseFee(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if !feePattern.MatchString(input) {
		return decimal.Zero, invalidInput("fee", input)
	}
	fee, err := decimal.NewFromString(strings.Replace(input, ",", ".", 1))
	if err != nil {
		return decimal.Zero, invalidInput("fee", input)
	}
	return fee, nil
}

// ParseMonths parses a whole number of months in [minMonths, MaxMonths].
func ParseMonths(input string, minMonths int) (int, error) {
	input = strings.TrimSpace(input)
	n, err := strconv.Atoi(input)
	if err != nil || n < minMonths || n > MaxMonths {
		return 0, invalidInput("months", input)
	}
	return n, nil
}

// ValidateName trims a category or type name and rejects empty, overlong
// or control-character input.
func ValidateName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if name == "" || utf8.RuneCountInString(name) > models.MaxNameLength {
		return "", invalidInput("name", input)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", invalidInput("name", input)
		}
	}
	return name, nil
}

func parseID(payload string) (int, error) {
	id, err := strconv.Atoi(payload)
	if err != nil || id <= 0 {
		return 0, invalidInput("id", payload)
	}
	return id, nil
}
