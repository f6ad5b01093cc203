// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import "github.com/cockroachdb/errors"

// ErrorKind classifies the open-time and verify-time failures spec.md §7
// names. Lookup itself never returns an error: out-of-range piece counts,
// absent slices, and cache misses are reported in-band as sentinel Values
// (see value.go), and I/O failures after Open are logged and treated as
// Unknown for that one lookup.
type ErrorKind int

const (
	// OpenFailed: directory missing, unreadable, or format unidentifiable.
	OpenFailed ErrorKind = iota
	// FormatMismatch: CRC says one format, extension says another.
	FormatMismatch
	// IndexFileMalformed: text parse error, inconsistent block count, or a
	// negative/overflowing field.
	IndexFileMalformed
	// SliceMissing: .cpr* absent for a slice with <= SamePiecesOneFile
	// pieces (fatal at Open; larger slices degrade to SubdbUnavailable
	// instead of this error).
	SliceMissing
	// IoError: a positioned read or file open failed after Open.
	IoError
	// AllocFailed: a cache buffer or catalog table allocation failed.
	AllocFailed
	// CrcMismatch: only ever surfaced by Verify.
	CrcMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case OpenFailed:
		return "open-failed"
	case FormatMismatch:
		return "format-mismatch"
	case IndexFileMalformed:
		return "index-file-malformed"
	case SliceMissing:
		return "slice-missing"
	case IoError:
		return "io-error"
	case AllocFailed:
		return "alloc-failed"
	case CrcMismatch:
		return "crc-mismatch"
	default:
		return "unknown"
	}
}

// Error wraps an ErrorKind around the underlying cause, so callers can
// switch on the kind with errors.As while cockroachdb/errors still renders
// (and redacts) the full cause chain.
type Error struct {
	Kind  ErrorKind
	cause error
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	return errors.Wrapf(e.cause, "egdb: %s", errors.Safe(e.Kind.String())).Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, egdb.OpenFailed) shorthand via KindError.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind && other.cause == nil
}

// KindError is a sentinel usable with errors.Is(err, egdb.KindError(kind)):
// it carries no cause, only a Kind, and Error.Is matches on Kind alone.
func KindError(kind ErrorKind) error {
	return &Error{Kind: kind}
}
