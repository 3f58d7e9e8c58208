// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies knowledge-base failures.
type ErrorKind int

const (
	// KindIO is a generic filesystem failure; the OS message is kept as is.
	KindIO ErrorKind = iota
	KindNotFound
	KindPermissionDenied
	KindUnsupportedFormat
	KindExtractionFailed
	KindEmptyInput
	KindInvalidName
	KindAlreadyExists
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrIO                = errors.New("i/o error")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrEmptyInput        = errors.New("name cannot be empty")
	ErrInvalidName       = errors.New("invalid name")
	ErrAlreadyExists     = errors.New("already exists")
)

var kindSentinels = map[ErrorKind]error{
	KindIO:                ErrIO,
	KindNotFound:          ErrNotFound,
	KindPermissionDenied:  ErrPermissionDenied,
	KindUnsupportedFormat: ErrUnsupportedFormat,
	KindExtractionFailed:  ErrExtractionFailed,
	KindEmptyInput:        ErrEmptyInput,
	KindInvalidName:       ErrInvalidName,
	KindAlreadyExists:     ErrAlreadyExists,
}

// String returns the kind name used in logs and host responses.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindExtractionFailed:
		return "ExtractionFailed"
	case KindEmptyInput:
		return "EmptyInput"
	case KindInvalidName:
		return "InvalidName"
	case KindAlreadyExists:
		return "AlreadyExists"
	default:
		return "IO"
	}
}

// Error is the structured failure returned by every kb and convert
// operation. Err holds the underlying cause, usually an *fs.PathError.
type Error struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	msg := kindSentinels[e.Kind].Error()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// NewError builds an *Error with an explicit kind.
func NewError(op, path string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// wrapFS classifies a filesystem error into an *Error.
func wrapFS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		return err
	}
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		kind = KindAlreadyExists
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf returns the ErrorKind carried by err, or KindIO when err is not an
// *Error.
func KindOf(err error) ErrorKind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return KindIO
}
