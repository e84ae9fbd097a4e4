package we

import (
	"fmt"
)

const (
	MaxSymbolLength      = 32
	MaxShortSymbolLength = 9
)

// Symbol is a storage key made of 1 to 32 characters from [a-zA-Z0-9_].
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

func (s Symbol) Validate() error {
	if len(s) == 0 || len(s) > MaxSymbolLength {
		return InvalidSymbol(string(s), fmt.Sprintf("length must be between 1 and %d", MaxSymbolLength))
	}

	for _, c := range s {
		if !isSymbolChar(c) {
			return InvalidSymbol(string(s), fmt.Sprintf("unexpected character %q", c))
		}
	}

	return nil
}

func isSymbolChar(c rune) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// ShortSymbol is intended for package level key literals and panics when name is not a valid short symbol.
func ShortSymbol(name string) Symbol {
	symbol := Symbol(name)
	if err := symbol.Validate(); err != nil {
		panic(err)
	}

	if len(symbol) > MaxShortSymbolLength {
		panic(InvalidSymbol(name, fmt.Sprintf("short symbols are limited to %d characters", MaxShortSymbolLength)))
	}

	return symbol
}
