// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package logging

import "strings"

// RedactEmail masks the local part of an email address for safe logging.
// Student emails are personal data and must never appear verbatim in logs.
//
//	RedactEmail("maria.lopez@example.edu") == "m***@example.edu"
func RedactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// Truncate shortens a string to at most n runes, appending "..." when cut.
// Used to keep free-form request fields from flooding log lines.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
