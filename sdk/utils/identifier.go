// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidIdentifier is wrapped by ValidateIdentifier failures.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,80}$`)

// ValidateIdentifier checks that an item identifier is between 3 and 80
// characters and contains only alphanumerics, underscores and dashes.
// Identifiers are immutable once an item exists, so this runs before any
// request is sent.
func ValidateIdentifier(identifier string) error {
	if !identifierRe.MatchString(identifier) {
		return fmt.Errorf("%w: %q must be 3-80 characters of [A-Za-z0-9_-]",
			ErrInvalidIdentifier, identifier)
	}
	return nil
}
