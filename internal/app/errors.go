package app

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport error")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("parse error")

	ErrRunCanceled = errors.New("crawl run canceled")
	ErrRunPending  = errors.New("crawl run still running")
	ErrEmptyTag    = errors.New("tag must not be empty")
)

// TransportError is returned when a page could not be fetched.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ParseError is returned when a page body is not usable markup at all.
// A quote missing its text or author is not a ParseError.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
