package main

import (
	"strconv"
)

type MachineWord int16

const maxMachineWord = 32767

type TokenType string

const (
	InvalidToken    TokenType = ""
	Keyword         TokenType = "keyword"
	SymbolToken     TokenType = "symbol"
	IntegerConstant TokenType = "integerConstant"
	StringConstant  TokenType = "stringConstant"
	Identifier      TokenType = "identifier"
)

// binaryOperators maps each binary operator symbol to the VM operation it compiles to.
var binaryOperators = map[string]VMOperation{
	"+": AddVMOperation,
	"-": SubVMOperation,
	"*": MulVMOperation,
	"/": DivVMOperation,
	"&": AndVMOperation,
	"|": OrVMOperation,
	"<": LtVMOperation,
	">": GtVMOperation,
	"=": EqVMOperation,
}

var unaryOperators = map[string]VMOperation{
	"-": NegVMOperation,
	"~": NotVMOperation,
}

type Token struct {
	tokenType TokenType
	terminal  string
	line      int
}

func (t Token) is(tokenType TokenType, terminal string) bool {
	return t.tokenType == tokenType && t.terminal == terminal
}

func (t Token) isSymbol(terminal string) bool {
	return t.is(SymbolToken, terminal)
}

func (t Token) isKeyword(terminals ...string) bool {
	if t.tokenType != Keyword {
		return false
	}
	for _, terminal := range terminals {
		if t.terminal == terminal {
			return true
		}
	}
	return false
}

// describe renders the token for error messages.
func (t Token) describe() string {
	switch t.tokenType {
	case InvalidToken:
		return "end of input"
	case StringConstant:
		return strconv.Quote(t.terminal)
	default:
		return string(t.tokenType) + " " + strconv.Quote(t.terminal)
	}
}

// asInt parses an integer constant. Negative values never reach here as - is an operator.
func (t Token) asInt() (MachineWord, error) {
	word, err := strconv.Atoi(t.terminal)
	if err != nil || word > maxMachineWord || word < 0 {
		return 0, &RangeError{Line: t.line, Literal: t.terminal}
	}
	return MachineWord(word), nil
}
