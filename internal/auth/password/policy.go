// Package password validates password strength for change and reset flows.
package password

import "strings"

const specialChars = `!@#$%^&*(),.?":{}|<>`

// minLength is the hard floor; anything shorter fails outright.
const minLength = 8

// Result carries the strength verdict and, on failure, actionable feedback
// suitable for returning to the client.
type Result struct {
	Valid    bool
	Score    int
	Feedback []string
}

// Evaluate scores a candidate password. Each satisfied criterion adds one
// point: length >= 8, an upper-case letter, a lower-case letter, a digit,
// a special character, with a bonus point at length >= 12. A password is
// acceptable at score >= 4, but the length floor is mandatory.
func Evaluate(candidate string) Result {
	var r Result
	if len(candidate) >= minLength {
		r.Score++
	} else {
		r.Feedback = append(r.Feedback, "must be at least 8 characters long")
	}
	if len(candidate) >= 12 {
		r.Score++
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range candidate {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, c):
			hasSpecial = true
		}
	}
	if hasUpper {
		r.Score++
	} else {
		r.Feedback = append(r.Feedback, "add an upper-case letter")
	}
	if hasLower {
		r.Score++
	} else {
		r.Feedback = append(r.Feedback, "add a lower-case letter")
	}
	if hasDigit {
		r.Score++
	} else {
		r.Feedback = append(r.Feedback, "add a digit")
	}
	if hasSpecial {
		r.Score++
	} else {
		r.Feedback = append(r.Feedback, "add a special character")
	}

	r.Valid = len(candidate) >= minLength && r.Score >= 4
	return r
}
