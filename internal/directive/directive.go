// Package directive tokenizes production order strings into key=value
// directives.
//
// An order is a sequence of pairs joined by ',', '\n' or '\r':
//
//	RUN=1,ESTOP_OK=1,QUALITY=87
//
// Keys and values are bounded to MaxTokenLen bytes. In the default lenient
// mode oversized tokens are truncated; in strict mode the scan stops with
// ErrDirectiveTooLong. A fragment without '=' ends the scan.
package directive

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// MaxTokenLen is the maximum length in bytes of a key or value.
const MaxTokenLen = 15

// Separators terminate a value.
const Separators = ",\n\r"

// Recognized directive keys.
const (
	KeyRun     = "RUN"
	KeyEstopOK = "ESTOP_OK"
	KeyQuality = "QUALITY"
)

var (
	// ErrDirectiveTooLong is reported in strict mode when a key or value
	// exceeds MaxTokenLen.
	ErrDirectiveTooLong = errors.New("directive too long")

	// ErrMalformedDirective is reported in strict mode when a non-empty
	// fragment has no '='.
	ErrMalformedDirective = errors.New("malformed directive")
)

// DirectiveError locates a strict-mode parse failure in the order.
type DirectiveError struct {
	Offset int
	Err    error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Directive is one key=value pair.
type Directive struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Known reports whether the key is part of the controller vocabulary.
func (d Directive) Known() bool {
	switch d.Key {
	case KeyRun, KeyEstopOK, KeyQuality:
		return true
	}
	return false
}

// Option configures a Scanner.
type Option func(*Scanner)

// Strict makes the scanner fail on oversized tokens and malformed trailing
// fragments instead of tolerating them.
func Strict() Option {
	return func(s *Scanner) { s.strict = true }
}

// Scanner reads directives from an order one at a time. It is single pass
// and cannot be rewound.
type Scanner struct {
	src    string
	pos    int
	strict bool
	done   bool
	cur    Directive
	err    error
}

// NewScanner returns a Scanner over order.
func NewScanner(order string, opts ...Option) *Scanner {
	s := &Scanner{src: order}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan advances to the next directive. It returns false when the input is
// exhausted, a fragment without '=' is reached, or a strict-mode error
// occurred (see Err).
func (s *Scanner) Scan() bool {
	if s.done || s.pos >= len(s.src) {
		s.done = true
		return false
	}

	rest := s.src[s.pos:]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		if s.strict && strings.Trim(rest, Separators+" \t") != "" {
			s.fail(s.pos, ErrMalformedDirective)
		}
		s.done = true
		return false
	}

	key := rest[:eq]
	if len(key) > MaxTokenLen {
		if s.strict {
			s.fail(s.pos, ErrDirectiveTooLong)
			return false
		}
		key = key[:MaxTokenLen]
	}

	valStart := eq + 1
	tail := rest[valStart:]
	sep := strings.IndexAny(tail, Separators)
	vlen := len(tail)
	if sep >= 0 {
		vlen = sep
	}
	if vlen > MaxTokenLen {
		if s.strict {
			s.fail(s.pos+valStart, ErrDirectiveTooLong)
			return false
		}
		vlen = MaxTokenLen
	}

	s.cur = Directive{Key: key, Value: tail[:vlen]}
	if sep >= 0 {
		s.pos += valStart + sep + 1
	} else {
		// Without a separator the scan resumes after the kept value bytes.
		s.pos += valStart + vlen
	}
	return true
}

// Directive returns the directive produced by the last successful Scan.
func (s *Scanner) Directive() Directive {
	return s.cur
}

// Err returns the strict-mode error that ended the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) fail(offset int, err error) {
	s.err = &DirectiveError{Offset: offset, Err: err}
	s.done = true
}

// All returns the directives of order as a single-use sequence.
func All(order string, opts ...Option) iter.Seq[Directive] {
	s := NewScanner(order, opts...)
	return func(yield func(Directive) bool) {
		for s.Scan() {
			if !yield(s.Directive()) {
				return
			}
		}
	}
}

// Validate scans order in strict mode and returns the first problem found.
// Unknown keys are not an error.
func Validate(order string) error {
	s := NewScanner(order, Strict())
	for s.Scan() {
	}
	return s.Err()
}
