package scoring

import (
	"fmt"

	"github.com/mcoot/bullsgame/internal/model"
)

// CodeLength is the number of digits in a secret and in a guess
const CodeLength = 4

// Score compares a guess against the secret.
// Bulls are digits in the right position. Cows are the remaining digits
// that appear in both codes, counted per digit value so repeated digits
// are never matched twice.
func Score(secret, guess string) (model.Score, error) {
	if err := ValidateGuess(secret); err != nil {
		return model.Score{}, fmt.Errorf("secret: %w", err)
	}
	if err := ValidateGuess(guess); err != nil {
		return model.Score{}, err
	}

	var result model.Score
	var inSecret, inGuess [10]int
	for i := 0; i < CodeLength; i++ {
		s, g := secret[i]-'0', guess[i]-'0'
		if s == g {
			result.Bulls++
		}
		inSecret[s]++
		inGuess[g]++
	}

	for d := range inSecret {
		result.Cows += min(inSecret[d], inGuess[d])
	}
	result.Cows -= result.Bulls

	return result, nil
}

// ValidateGuess checks that value is exactly CodeLength ASCII digits
func ValidateGuess(value string) error {
	if len(value) != CodeLength {
		return fmt.Errorf("%w: got %q", model.ErrInvalidGuessFormat, value)
	}
	for i := 0; i < len(value); i++ {
		if !isDigit(value[i]) {
			return fmt.Errorf("%w: got %q", model.ErrInvalidGuessFormat, value)
		}
	}
	return nil
}

// Sanitize reduces live input to at most CodeLength digits.
// Non-digit characters are dropped and anything past the limit is cut.
func Sanitize(input string) string {
	out := make([]byte, 0, CodeLength)
	for i := 0; i < len(input) && len(out) < CodeLength; i++ {
		if isDigit(input[i]) {
			out = append(out, input[i])
		}
	}
	return string(out)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
