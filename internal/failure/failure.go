// Package failure defines the closed set of classified failures the screener
// reports to its caller.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Every kind maps to exactly one user-facing message.
type Kind int

const (
	Unknown Kind = iota
	Network
	RateLimited
	QuotaExceeded
	AuthInvalid
	MissingCredential
	MalformedConfig
	NoCriteria
	NoFiles
	NotPDF
	InvalidStrength
	UnreadablePDF
)

var names = map[Kind]string{
	Unknown:           "unknown",
	Network:           "network",
	RateLimited:       "rate_limited",
	QuotaExceeded:     "quota_exceeded",
	AuthInvalid:       "auth_invalid",
	MissingCredential: "missing_credential",
	MalformedConfig:   "malformed_config",
	NoCriteria:        "no_criteria",
	NoFiles:           "no_files",
	NotPDF:            "not_pdf",
	InvalidStrength:   "invalid_strength",
	UnreadablePDF:     "unreadable_pdf",
}

var messages = map[Kind]string{
	Unknown:           "Unknown error, please contact support.",
	Network:           "The application encountered a network issue. Please check your internet connection and try again.",
	RateLimited:       "Rate limit hit. Please wait before submitting a new request.",
	QuotaExceeded:     "Quota exceeded. Please contact support.",
	AuthInvalid:       "Invalid API key entered, please check your key and try again.",
	MissingCredential: "API key is missing in the configuration. Run 'cv-screener init' for help.",
	MalformedConfig:   "Config file is not valid. Delete the file and try again.",
	NoCriteria:        "Please enter valid criteria before proceeding.",
	NoFiles:           "Please add at least one PDF file to process.",
	NotPDF:            "Only PDF files are allowed.",
	InvalidStrength:   "Filter strength must be between 1 and 5.",
	UnreadablePDF:     "Failed to process file, is the PDF scanned or empty?",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return names[Unknown]
}

// Message returns the fixed user-facing message for the kind.
func (k Kind) Message() string {
	if msg, ok := messages[k]; ok {
		return msg
	}
	return messages[Unknown]
}

// BatchFatal reports whether a failure of this kind aborts the rest of a batch.
// Provider and network failures are batch-fatal.
func (k Kind) BatchFatal() bool {
	switch k {
	case Network, RateLimited, QuotaExceeded, AuthInvalid, Unknown:
		return true
	default:
		return false
	}
}

// Error is a classified failure with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err with the given kind. A nil err is allowed.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified failure from a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first classified failure in err's chain,
// or Unknown when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Message returns the user-facing message for err.
func Message(err error) string {
	return KindOf(err).Message()
}
