// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"strings"
)

// ParseKVArgs turns repeated "key:value" arguments into a metadata map.
// A key given once maps to its string value; a key given multiple times
// maps to a []string preserving argument order.
func ParseKVArgs(args []string) (map[string]any, error) {
	out := map[string]any{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q must be formatted as key:value", arg)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch existing := out[key].(type) {
		case nil:
			out[key] = value
		case string:
			out[key] = []string{existing, value}
		case []string:
			out[key] = append(existing, value)
		}
	}
	return out, nil
}
