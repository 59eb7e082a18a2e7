package sections

import (
	"strconv"
	"strings"
)

// natKeyComponents is the fixed width of a natural-sort key. Numbers with
// fewer components are right-padded with zeros so "1.2" sorts before "1.10"
// and both sort before "2".
const natKeyComponents = 4

// malformedKeyComponent pushes numbers that fail to parse behind every
// well-formed numbering.
const malformedKeyComponent = 999

// natKey converts a dot-separated section number into a fixed-width integer
// tuple for natural ordering.
func natKey(number string) [natKeyComponents]int {
	var key [natKeyComponents]int
	parts := strings.Split(number, ".")
	if len(parts) > natKeyComponents {
		parts = parts[:natKeyComponents]
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			for j := range key {
				key[j] = malformedKeyComponent
			}
			return key
		}
		key[i] = n
	}
	return key
}

// NatLess reports whether number a orders before number b naturally.
func NatLess(a, b string) bool {
	ka, kb := natKey(a), natKey(b)
	for i := 0; i < natKeyComponents; i++ {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}
