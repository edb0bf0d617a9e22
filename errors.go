package main

import (
	"errors"
	"fmt"
	"strconv"
)

// LexicalError reports source text that cannot be split into tokens.
type LexicalError struct {
	Line   int
	Reason string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("line %d: lexical error: %s", e.Line, e.Reason)
}

// RangeError reports an integer constant that does not fit a machine word.
type RangeError struct {
	Line    int
	Literal string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("line %d: integer constant %s out of range 0..%d", e.Line, e.Literal, maxMachineWord)
}

// SyntaxError reports the first token that no production accepts.
type SyntaxError struct {
	Line     int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: syntax error: expected %s, found %s", e.Line, e.Expected, e.Found)
}

type DuplicateDeclarationError struct {
	Line  int
	Name  string
	Scope Scope
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("line %d: %q already declared in %s", e.Line, e.Name, e.Scope)
}

type ResolutionError struct {
	Line int
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("line %d: identifier %s not declared", e.Line, strconv.Quote(e.Name))
}

// atLine attaches a source line to errors raised by components that do not see tokens.
func atLine(err error, line int) error {
	var (
		duplicate  *DuplicateDeclarationError
		resolution *ResolutionError
	)
	switch {
	case errors.As(err, &duplicate):
		if duplicate.Line == 0 {
			duplicate.Line = line
		}
	case errors.As(err, &resolution):
		if resolution.Line == 0 {
			resolution.Line = line
		}
	}
	return err
}
