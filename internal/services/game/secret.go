package game

import (
	"github.com/mcoot/bullsgame/internal/dependencies/random"
	"github.com/mcoot/bullsgame/internal/services/scoring"
)

const digitAlphabet = "0123456789"

// newSecret generates a secret code. Without unique digits every position
// is drawn independently; with unique digits the first CodeLength places
// of a partial Fisher-Yates shuffle are used.
func newSecret(rnd random.Random, uniqueDigits bool) string {
	if !uniqueDigits {
		return rnd.String(scoring.CodeLength, digitAlphabet)
	}

	digits := []byte(digitAlphabet)
	for i := 0; i < scoring.CodeLength; i++ {
		j := i + rnd.Intn(len(digits)-i)
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits[:scoring.CodeLength])
}
