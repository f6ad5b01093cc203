// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import "github.com/cockroachdb/redact"

// LogFunc is the single logging callback spec.md §7 names ("A single
// logging callback (log_fn(msg)) receives all diagnostics; no data is ever
// written by the driver outside of what the caller-provided callback
// writes"). Messages are built with cockroachdb/redact the same way the
// teacher's error paths wrap untrusted-but-loggable identifiers with
// errors.Safe: file paths and slice signatures are marked safe to log, so a
// caller that routes LogFunc somewhere less trusted than its own process
// logs can still redact anything that wasn't explicitly marked safe.
type LogFunc func(redact.RedactableString)

// discardLog is used when Open is given a nil LogFunc.
func discardLog(redact.RedactableString) {}

// logSprintf builds a LogFunc message the way the teacher's own error paths
// build loggable strings: untrusted identifiers (slice signatures, index
// values already embedded in format/args here) pass through redact.Sprintf
// verbatim and are treated as redactable, while errors wrapped upstream with
// errors.Safe remain marked safe through %s.
func logSprintf(format string, args ...interface{}) redact.RedactableString {
	return redact.Sprintf(format, args...)
}
