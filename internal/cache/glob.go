package cache

import "strings"

func checkPattern(pattern string) error {
	if strings.ContainsAny(pattern, `[\`) {
		return ErrUnsupportedPattern
	}
	return nil
}

// Match reports whether key matches the anchored glob pattern.
// '*' matches any run of bytes (including none) and '?' exactly one byte.
func Match(pattern, key string) bool {
	p, k := 0, 0
	star, mark := -1, 0

	for k < len(key) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = k
			p++
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == key[k]):
			p++
			k++
		case star >= 0:
			p = star + 1
			mark++
			k = mark
		default:
			return false
		}
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}

	return p == len(pattern)
}
