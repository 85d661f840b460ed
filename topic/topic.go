// Package topic validates MQTT topic names and filters and matches them
// against each other.
package topic

import (
	"errors"
	"strings"
)

var (
	ErrEmpty        = errors.New("topic: empty")
	ErrTooLong      = errors.New("topic: longer than 65535 bytes")
	ErrWildcardName = errors.New("topic: wildcard in topic name")
	ErrMultiLevel   = errors.New("topic: '#' must be the last level on its own")
	ErrSingleLevel  = errors.New("topic: '+' must occupy a whole level")
	ErrNullChar     = errors.New("topic: contains U+0000")
)

const maxLength = 0xFFFF

// ValidateName checks a topic name used in PUBLISH. 4.7.3 Topic semantic and usage
func ValidateName(name string) error {
	if err := validate(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, "+#") {
		return ErrWildcardName
	}
	return nil
}

// ValidateFilter checks a topic filter used in SUBSCRIBE and UNSUBSCRIBE.
func ValidateFilter(filter string) error {
	if err := validate(filter); err != nil {
		return err
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return ErrMultiLevel
		}
		if strings.Contains(level, "+") && level != "+" {
			return ErrSingleLevel
		}
	}
	return nil
}

func validate(s string) error {
	if s == "" {
		return ErrEmpty
	}
	if len(s) > maxLength {
		return ErrTooLong
	}
	if strings.ContainsRune(s, 0) {
		return ErrNullChar
	}
	return nil
}

// Match reports whether the topic name is matched by filter.
//
// '+' matches exactly one level, '#' matches the parent level and any number
// of child levels. Names starting with '$' are never matched by a filter whose
// first level is a wildcard.
func Match(filter, name string) bool {
	if isSystem(name) && len(filter) > 0 && (filter[0] == '+' || filter[0] == '#') {
		return false
	}
	fs, ns := strings.Split(filter, "/"), strings.Split(name, "/")
	for i, f := range fs {
		switch {
		case f == "#":
			return i == len(fs)-1
		case i >= len(ns):
			return false
		case f != "+" && f != ns[i]:
			return false
		}
	}
	return len(fs) == len(ns)
}

func isSystem(name string) bool {
	return strings.HasPrefix(name, "$")
}
