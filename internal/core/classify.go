package core

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default classification thresholds.
const (
	// DefaultLetterShare is the minimum share of letters that makes a query a name.
	DefaultLetterShare = 0.3

	// DefaultDigitShare is the minimum share of digits, among characters other
	// than spaces, hyphens and parentheses, that makes a query a phone number.
	DefaultDigitShare = 0.7

	// DefaultMinPhoneDigits is the fewest digits a phone query may carry.
	DefaultMinPhoneDigits = 5
)

// platePattern matches vehicle registration plates such as "А123ВС77".
var platePattern = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ]{1,2}[0-9]{3}[a-zA-Zа-яА-ЯёЁ]{2,3}[0-9]{2,3}$`)

// Classifier decides which QueryType a raw query string represents.
// The zero value is not useful; start from DefaultClassifier.
type Classifier struct {
	LetterShare    float64
	DigitShare     float64
	MinPhoneDigits int
}

// DefaultClassifier returns a classifier with the default thresholds.
func DefaultClassifier() Classifier {
	return Classifier{
		LetterShare:    DefaultLetterShare,
		DigitShare:     DefaultDigitShare,
		MinPhoneDigits: DefaultMinPhoneDigits,
	}
}

// Classify classifies query with the default thresholds.
func Classify(query string) QueryType {
	return DefaultClassifier().Classify(query)
}

// Classify returns the type of query. It never fails: anything that is not
// clearly an email or a phone number is treated as a name.
//
// Rules, first match wins:
//  1. contains "@": email
//  2. letters and digits shaped like a registration plate: name
//  3. letters make up at least LetterShare of the query: name
//  4. at least MinPhoneDigits digits making up at least DigitShare of the
//     query without spaces, hyphens and parentheses: phone
//  5. otherwise: name
func (c Classifier) Classify(query string) QueryType {
	cleaned := strings.TrimSpace(query)

	if strings.Contains(cleaned, "@") {
		return QueryEmail
	}

	var letters, digits, punctuated int
	for _, r := range cleaned {
		switch {
		case isQueryLetter(r):
			letters++
		case r >= '0' && r <= '9':
			digits++
		}
		switch r {
		case ' ', '-', '(', ')':
			punctuated++
		}
	}
	length := utf8.RuneCountInString(cleaned)

	if letters > 0 && digits > 0 && platePattern.MatchString(strings.ReplaceAll(cleaned, " ", "")) {
		return QueryName
	}

	if letters > 0 && float64(letters) >= float64(length)*c.LetterShare {
		return QueryName
	}

	if digits >= c.MinPhoneDigits {
		normLen := length - punctuated
		if normLen > 0 && float64(digits) >= float64(normLen)*c.DigitShare {
			return QueryPhone
		}
	}

	return QueryName
}

// isQueryLetter reports whether r is a Latin or Cyrillic letter.
func isQueryLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я', r == 'ё', r == 'Ё':
		return true
	}
	return false
}
