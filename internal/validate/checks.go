package validate

import (
	"regexp"
	"strings"
	"unicode"
)

// TrimSpace is a Normalizer removing surrounding whitespace.
func TrimSpace(v string) string {
	return strings.TrimSpace(v)
}

// Lowercase is a Normalizer folding the value to lower case.
func Lowercase(v string) string {
	return strings.ToLower(v)
}

// MinLen rejects values shorter than n bytes.
func MinLen(n int, message string) Check {
	return func(v string) (string, bool) {
		if len(v) < n {
			return message, false
		}
		return "", true
	}
}

// MaxLen rejects values longer than n bytes.
func MaxLen(n int, message string) Check {
	return func(v string) (string, bool) {
		if len(v) > n {
			return message, false
		}
		return "", true
	}
}

// Pattern rejects values not matching re in full.
func Pattern(re *regexp.Regexp, message string) Check {
	return func(v string) (string, bool) {
		if !re.MatchString(v) {
			return message, false
		}
		return "", true
	}
}

// OneOf rejects values outside the allowed set.
func OneOf(allowed []string, message string) Check {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(v string) (string, bool) {
		if _, ok := set[v]; !ok {
			return message, false
		}
		return "", true
	}
}

// ContainsLower rejects values without a lowercase letter.
func ContainsLower(message string) Check {
	return containsClass(unicode.IsLower, message)
}

// ContainsUpper rejects values without an uppercase letter.
func ContainsUpper(message string) Check {
	return containsClass(unicode.IsUpper, message)
}

// ContainsDigit rejects values without a decimal digit.
func ContainsDigit(message string) Check {
	return containsClass(unicode.IsDigit, message)
}

func containsClass(class func(rune) bool, message string) Check {
	return func(v string) (string, bool) {
		for _, r := range v {
			if class(r) {
				return "", true
			}
		}
		return message, false
	}
}
