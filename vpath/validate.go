// Package vpath validates opaque storage identifiers and encodes/decodes the
// provider-prefixed virtual paths used to address projects and sessions.
// Every identifier recovered from a virtual path or from provider storage
// must pass validation here before it is joined onto a filesystem path or
// used as a store key.
package vpath

import "strings"

// IsSafeStorageID reports whether s can be used as a single path segment.
// Only alphanumerics, '-', '_' and '.' are accepted, and the string must not
// contain "..". The scan always runs over the whole input.
func IsSafeStorageID(s string) bool {
	valid := s != "" && !strings.Contains(s, "..")
	for i := 0; i < len(s); i++ {
		if !isSafeByte(s[i]) {
			valid = false
		}
	}
	return valid
}

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.':
		return true
	}
	return false
}

// IsValidUUID reports whether s is exactly the canonical hyphenated UUID
// form: 36 characters, hyphens at positions 8, 13, 18 and 23, hexadecimal
// digits everywhere else. No other form is accepted.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	valid := true
	for i := 0; i < len(s); i++ {
		switch i {
		case 8, 13, 18, 23:
			if s[i] != '-' {
				valid = false
			}
		default:
			if !isHexByte(s[i]) {
				valid = false
			}
		}
	}
	return valid
}

func isHexByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
