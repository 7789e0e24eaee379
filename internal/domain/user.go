// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLen = 2
	MaxUsernameLen = 20
)

var (
	ErrUsernameTooShort = errors.New("username too short")
	ErrUsernameTooLong  = errors.New("username too long")
)

// Profile is display metadata carried next to the name. It has no effect on behavior.
type Profile struct {
	Department string `json:"department,omitempty"`
	Gender     string `json:"gender,omitempty"`
}

// NormalizeUsername trims surrounding whitespace and checks the length bounds.
func NormalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLen {
		return "", ErrUsernameTooShort
	}
	if n > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}
