// Package amount parses, formats and bounds ledger integer amounts.
//
// Amounts are signed integers of arbitrary precision carried as base-10
// strings. Stored balances and total supply are confined to the signed
// 128-bit range.
package amount

import (
	"errors"
	"math/big"
	"strings"
)

// ErrInvalid indicates a string that is not a base-10 integer.
var ErrInvalid = errors.New("amount must be a base-10 integer")

var (
	// Max is the largest representable balance, 2^127 - 1.
	Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	// Min is the smallest representable balance, -2^127.
	Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Parse reads a signed base-10 integer. Surrounding whitespace is ignored.
func Parse(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrInvalid
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(value, "-"), "+")
	if digits == "" {
		return nil, ErrInvalid
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, ErrInvalid
		}
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, ErrInvalid
	}
	return n, nil
}

// Format renders n in base 10; nil renders as "0".
func Format(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// InRange reports whether n lies within [Min, Max].
func InRange(n *big.Int) bool {
	if n == nil {
		return true
	}
	return n.Cmp(Min) >= 0 && n.Cmp(Max) <= 0
}

// Add returns a+b as a new value.
func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(orZero(a), orZero(b))
}

// Sub returns a-b as a new value.
func Sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(orZero(a), orZero(b))
}

// Sum returns the sum of values.
func Sum(values ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, orZero(v))
	}
	return total
}

// Zero returns a fresh zero value.
func Zero() *big.Int { return new(big.Int) }

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
