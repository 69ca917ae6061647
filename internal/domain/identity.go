// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxIdentityLen = 128

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
)

// Identity is a client-chosen name for a logical user. It is not
// authenticated; the relay only routes by it.
type Identity string

func ParseIdentity(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(s) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(s), nil
}

func (id Identity) String() string { return string(id) }
