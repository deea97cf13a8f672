// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package utils

import "strings"

// The storage API requires header values to be plain ASCII with no
// whitespace or reserved characters. Anything else is shipped as
// uri(<percent-encoded>) and decoded server-side.

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_.-~/"

// NeedsQuote reports whether v contains bytes outside the restricted
// header character set.
func NeedsQuote(v string) bool {
	for i := 0; i < len(v); i++ {
		if !strings.ContainsRune(unreserved, rune(v[i])) {
			return true
		}
	}
	return false
}

// PercentEncode escapes every byte outside the unreserved set as %XX.
// Spaces become %20, never +.
func PercentEncode(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if strings.ContainsRune(unreserved, rune(c)) {
			b.WriteByte(c)
		} else {
			b.WriteString("%")
			b.WriteByte("0123456789ABCDEF"[c>>4])
			b.WriteByte("0123456789ABCDEF"[c&0x0f])
		}
	}
	return b.String()
}

// MetaHeaderValue renders a metadata value for transmission as an
// x-archive-meta header, wrapping it in uri(...) when quoting is needed.
func MetaHeaderValue(v string) string {
	if NeedsQuote(v) {
		return "uri(" + PercentEncode(v) + ")"
	}
	return v
}
