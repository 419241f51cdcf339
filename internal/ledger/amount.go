package ledger

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the number of smallest-unit digits per whole display
// token on this ledger.
const TokenDecimals = 24

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

// ToDecimal converts a smallest-unit integer amount (as emitted by the
// ledger) to a display fixed-point decimal string. The conversion is exact:
// FromDecimal(ToDecimal(x)) == x for every valid input.
func ToDecimal(raw string) (string, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", fmt.Errorf("invalid monetary amount %q", raw)
	}
	if amount.Sign() < 0 {
		return "", fmt.Errorf("negative monetary amount %q", raw)
	}

	whole, frac := new(big.Int).QuoRem(amount, unitScale, new(big.Int))

	fracStr := frac.String()
	fracDigits := strings.TrimRight(strings.Repeat("0", TokenDecimals-len(fracStr))+fracStr, "0")
	if fracDigits == "" {
		return whole.String(), nil
	}

	return whole.String() + "." + fracDigits, nil
}

// FromDecimal converts a display decimal string back to the ledger's
// smallest-unit integer representation. Amounts with more fractional digits
// than the token supports are rejected rather than rounded.
func FromDecimal(display string) (string, error) {
	whole, fracDigits, _ := strings.Cut(display, ".")
	if whole == "" {
		whole = "0"
	}
	if len(fracDigits) > TokenDecimals {
		return "", fmt.Errorf("amount %q exceeds %d decimal places", display, TokenDecimals)
	}

	wholePart, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholePart.Sign() < 0 {
		return "", fmt.Errorf("invalid monetary amount %q", display)
	}

	// Right-pad the fraction to a full smallest-unit value
	fracPart := big.NewInt(0)
	if fracDigits != "" {
		padded := fracDigits + strings.Repeat("0", TokenDecimals-len(fracDigits))
		fracPart, ok = new(big.Int).SetString(padded, 10)
		if !ok || fracPart.Sign() < 0 {
			return "", fmt.Errorf("invalid monetary amount %q", display)
		}
	}

	amount := new(big.Int).Mul(wholePart, unitScale)
	amount.Add(amount, fracPart)

	return amount.String(), nil
}
