package flowxml

import (
	"fmt"

	"github.com/matzehuels/flowtower/pkg/errors"
)

// ParseError reports input that is not well-formed XML: empty documents,
// plain text, or a syntax error. Callers should keep their last good graph.
type ParseError struct {
	Line int   // 1-based line of the syntax error, 0 when unknown
	Err  error // underlying decoder error, may be nil
	msg  string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Err != nil:
		return fmt.Sprintf("parse flow: line %d: %v", e.Line, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("parse flow: %v", e.Err)
	default:
		return "parse flow: " + e.msg
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code implements errors.Coder.
func (e *ParseError) Code() errors.Code { return errors.ErrCodeParse }

// ValidationError reports a well-formed document that is not a usable Flow:
// the root element is not Flow, or no start element is present.
type ValidationError struct {
	Element string // the missing or unexpected element
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid flow: %s: %s", e.Element, e.Reason)
}

// Code implements errors.Coder.
func (e *ValidationError) Code() errors.Code { return errors.ErrCodeValidation }
