// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jid

import (
	"math/rand/v2"
	"strings"
)

const (
	// DefaultPairingCodeLength is the length the protocol expects for custom
	// pairing codes.
	DefaultPairingCodeLength = 8

	defaultPairingPattern = "[A-Z0-9]"
)

// RandomPairingCode builds a code of exactly length characters from pattern.
//
// The pattern is a sequence of literal characters and bracketed classes such
// as "[a-z0-9]". A pattern made only of literals whose length equals the target
// is returned verbatim. Otherwise the literals are kept in order, the remaining
// positions are drawn uniformly from the union of all classes, the result is
// upper-cased, and a short result is padded by repeating itself.
func RandomPairingCode(pattern string, length int) string {
	if length <= 0 {
		length = DefaultPairingCodeLength
	}
	if pattern == "" {
		pattern = defaultPairingPattern
	}

	literals, pool := parsePattern(pattern)
	if len(pool) == 0 && len(literals) == length {
		return string(literals)
	}

	out := append([]rune(nil), literals...)
	for len(out) < length && len(pool) > 0 {
		out = append(out, pool[rand.IntN(len(pool))])
	}
	out = []rune(strings.ToUpper(string(out)))
	if len(out) == 0 {
		out = []rune(strings.ToUpper(string(mustPool(defaultPairingPattern))))
	}

	built := append([]rune(nil), out...)
	for len(out) < length {
		out = append(out, built...)
	}
	return string(out[:length])
}

// parsePattern splits pattern into its literal runes and the deduplicated
// union of every bracketed class.
func parsePattern(pattern string) (literals, pool []rune) {
	seen := make(map[rune]struct{})
	add := func(r rune) {
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		pool = append(pool, r)
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '[' {
			literals = append(literals, runes[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == ']' {
				end = j
				break
			}
		}
		if end < 0 {
			// Unterminated class: the bracket is a literal.
			literals = append(literals, runes[i])
			continue
		}
		class := runes[i+1 : end]
		for k := 0; k < len(class); k++ {
			if k+2 < len(class) && class[k+1] == '-' {
				lo, hi := class[k], class[k+2]
				if lo > hi {
					lo, hi = hi, lo
				}
				for r := lo; r <= hi; r++ {
					add(r)
				}
				k += 2
				continue
			}
			add(class[k])
		}
		i = end
	}
	return literals, pool
}

func mustPool(pattern string) []rune {
	_, pool := parsePattern(pattern)
	return pool
}
