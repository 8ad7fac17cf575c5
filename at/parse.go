package at

import (
	"strconv"
	"strings"
)

// ParseOpenResult extracts the connection id and error code from a
// "+QIOPEN: <connID>,<err>" line anywhere in s. A code of zero means
// the socket opened; anything else is a failure even when the line is
// surrounded by otherwise healthy output.
func ParseOpenResult(s string) (connID, code int, ok bool) {
	i := strings.Index(s, UrcOpenResult)
	if i < 0 {
		return 0, 0, false
	}
	entry := strings.TrimLeft(s[i+len(UrcOpenResult):], " ")
	if j := strings.IndexAny(entry, CRLF); j >= 0 {
		entry = entry[:j]
	}
	idText, codeText, found := strings.Cut(entry, ",")
	if !found {
		return 0, 0, false
	}
	connID, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return 0, 0, false
	}
	code, err = strconv.Atoi(strings.TrimSpace(codeText))
	if err != nil {
		return 0, 0, false
	}
	return connID, code, true
}

// ContextActive reports whether s contains a "+QIACT:" entry whose state
// field is 1. The query form lists every context, so all entries are
// inspected.
func ContextActive(s string) bool {
	for rest := s; ; {
		i := strings.Index(rest, ContextState)
		if i < 0 {
			return false
		}
		rest = rest[i+len(ContextState):]
		entry := strings.TrimLeft(rest, " ")
		if j := strings.IndexAny(entry, CRLF); j >= 0 {
			entry = entry[:j]
		}
		fields := strings.Split(entry, ",")
		if len(fields) >= 2 && strings.TrimSpace(fields[1]) == "1" {
			return true
		}
	}
}

// Registered reports whether s contains a "+CREG:" line whose stat field
// is 1 (home network) or 5 (roaming).
func Registered(s string) bool {
	i := strings.Index(s, "+CREG:")
	if i < 0 {
		return false
	}
	entry := strings.TrimLeft(s[i+len("+CREG:"):], " ")
	if j := strings.IndexAny(entry, CRLF); j >= 0 {
		entry = entry[:j]
	}
	fields := strings.Split(entry, ",")
	if len(fields) < 2 {
		return false
	}
	stat := strings.TrimSpace(fields[1])
	return stat == "1" || stat == "5"
}

// ParseReadLength extracts the byte count from a "+QIRD: <len>" line in s.
// The query form "+QIRD: <total>,<read>,<unread>" yields its first field.
func ParseReadLength(s string) (int, bool) {
	i := strings.Index(s, ReadLength)
	if i < 0 {
		return 0, false
	}
	entry := strings.TrimLeft(s[i+len(ReadLength):], " ")
	if j := strings.IndexAny(entry, CRLF+","); j >= 0 {
		entry = entry[:j]
	}
	n, err := strconv.Atoi(strings.TrimSpace(entry))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SanitizeCommand strips control bytes from a command line so free-form
// input cannot smuggle extra protocol lines or the payload terminator.
func SanitizeCommand(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
