package main

import (
	"strconv"
)

var primitiveTypes = map[string]bool{"int": true, "char": true, "boolean": true}

// JackCompiler translates one class in a single recursive-descent pass,
// emitting VM code as each construct is recognised. It holds one token of lookahead.
type JackCompiler struct {
	tokens  TokenScanner
	writer  *VMWriter
	symbols *SymbolTable
	labels  labelGenerator
	logger  *Logger

	className      string
	subroutineName string
	subroutineKind string
}

func NewJackCompiler(t TokenScanner, w *VMWriter, logger *Logger) *JackCompiler {
	return &JackCompiler{
		tokens:  t,
		writer:  w,
		symbols: NewSymbolTable(logger),
		logger:  logger,
	}
}

// CompileSource compiles one unit of Jack source and returns its VM instructions.
func CompileSource(source string, logger *Logger) ([]string, error) {
	writer := NewVMWriter()
	if err := NewJackCompiler(NewTokenizer(source), writer, logger).Compile(); err != nil {
		return nil, err
	}
	return writer.Lines(), nil
}

// Compile consumes the whole token stream. On error the writer may hold output
// for the subroutines compiled before the failure; it must not be used.
func (c *JackCompiler) Compile() error {
	if !c.tokens.Scan() && c.tokens.Err() != nil {
		return c.tokens.Err()
	}
	if err := c.compileClass(); err != nil {
		return err
	}
	if c.token().tokenType != InvalidToken {
		return c.unexpected("end of input")
	}
	return nil
}

func (c *JackCompiler) token() Token {
	return c.tokens.Token()
}

// advance consumes the current token and returns it.
func (c *JackCompiler) advance() (Token, error) {
	token := c.tokens.Token()
	if !c.tokens.Scan() && c.tokens.Err() != nil {
		return token, c.tokens.Err()
	}
	return token, nil
}

func (c *JackCompiler) unexpected(expected string) error {
	token := c.token()
	return &SyntaxError{Line: token.line, Expected: expected, Found: token.describe()}
}

func (c *JackCompiler) compileTerminal(expectation string) error {
	token := c.token()
	if token.terminal != expectation || (token.tokenType != SymbolToken && token.tokenType != Keyword) {
		return c.unexpected(strconv.Quote(expectation))
	}
	_, err := c.advance()
	return err
}

func (c *JackCompiler) compileIdentifier(what string) (Token, error) {
	if c.token().tokenType != Identifier {
		return Token{}, c.unexpected(what)
	}
	return c.advance()
}

// resolve leaves the error line unset; compileStatement fills in the statement's line.
func (c *JackCompiler) resolve(name Token) (Symbol, error) {
	return c.symbols.Lookup(name.terminal)
}

func (c *JackCompiler) compileClass() error {
	c.logger.Debug("Compiling class")
	if err := c.compileTerminal("class"); err != nil {
		return err
	}
	name, err := c.compileIdentifier("class name")
	if err != nil {
		return err
	}
	c.className = name.terminal
	if err := c.compileTerminal("{"); err != nil {
		return err
	}
	for c.token().isKeyword("static", "field") {
		if err := c.compileClassVarDec(); err != nil {
			return err
		}
	}
	for c.token().isKeyword("constructor", "function", "method") {
		if err := c.compileSubroutineDec(); err != nil {
			return err
		}
	}
	return c.compileTerminal("}")
}

func (c *JackCompiler) compileClassVarDec() error {
	kind, err := c.advance()
	if err != nil {
		return err
	}
	return c.compileVarNames(SymbolKind(kind.terminal))
}

func (c *JackCompiler) compileVarDec() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	return c.compileVarNames(VarSymbol)
}

// compileVarNames handles `type name (, name)* ;` shared by field, static and var declarations.
func (c *JackCompiler) compileVarNames(kind SymbolKind) error {
	variableType, err := c.compileType(false)
	if err != nil {
		return err
	}
	for {
		name, err := c.compileIdentifier("variable name")
		if err != nil {
			return err
		}
		if _, err := c.symbols.Declare(name.terminal, variableType, kind); err != nil {
			return atLine(err, name.line)
		}
		if !c.token().isSymbol(",") {
			break
		}
		if _, err := c.advance(); err != nil {
			return err
		}
	}
	return c.compileTerminal(";")
}

func (c *JackCompiler) compileType(allowVoid bool) (string, error) {
	token := c.token()
	switch {
	case token.isKeyword("int", "char", "boolean"), allowVoid && token.isKeyword("void"), token.tokenType == Identifier:
		_, err := c.advance()
		return token.terminal, err
	case allowVoid:
		return "", c.unexpected("return type")
	default:
		return "", c.unexpected("type")
	}
}

func (c *JackCompiler) compileSubroutineDec() error {
	kind, err := c.advance()
	if err != nil {
		return err
	}
	c.subroutineKind = kind.terminal
	c.symbols.StartSubroutine(c.className, c.subroutineKind == "method")

	if _, err := c.compileType(true); err != nil {
		return err
	}
	name, err := c.compileIdentifier("subroutine name")
	if err != nil {
		return err
	}
	c.subroutineName = name.terminal
	c.logger.Debug("Compiling %s %s.%s", c.subroutineKind, c.className, c.subroutineName)

	if err := c.compileTerminal("("); err != nil {
		return err
	}
	if err := c.compileParameterList(); err != nil {
		return err
	}
	if err := c.compileTerminal(")"); err != nil {
		return err
	}
	return c.compileSubroutineBody()
}

func (c *JackCompiler) compileParameterList() error {
	if c.token().isSymbol(")") {
		return nil
	}
	for {
		variableType, err := c.compileType(false)
		if err != nil {
			return err
		}
		name, err := c.compileIdentifier("parameter name")
		if err != nil {
			return err
		}
		if _, err := c.symbols.Declare(name.terminal, variableType, ArgumentSymbol); err != nil {
			return atLine(err, name.line)
		}
		if !c.token().isSymbol(",") {
			return nil
		}
		if _, err := c.advance(); err != nil {
			return err
		}
	}
}

// compileSubroutineBody declares all locals before writing the function header,
// since the header carries the local count.
func (c *JackCompiler) compileSubroutineBody() error {
	if err := c.compileTerminal("{"); err != nil {
		return err
	}
	for c.token().isKeyword("var") {
		if err := c.compileVarDec(); err != nil {
			return err
		}
	}

	c.writer.WriteFunction(c.className+"."+c.subroutineName, c.symbols.Count(VarSymbol))
	switch c.subroutineKind {
	case "constructor":
		c.writer.WritePush(ConstVMSegment, c.symbols.Count(FieldSymbol))
		c.writer.WriteCall("Memory.alloc", 1)
		c.writer.WritePop(PointerVMSegment, 0)
	case "method":
		c.writer.WritePush(ArgumentVMSegment, 0)
		c.writer.WritePop(PointerVMSegment, 0)
	}

	if err := c.compileStatements(); err != nil {
		return err
	}
	return c.compileTerminal("}")
}

func (c *JackCompiler) compileStatements() error {
	for c.token().isKeyword("let", "if", "while", "do", "return") {
		if err := c.compileStatement(); err != nil {
			return err
		}
	}
	if !c.token().isSymbol("}") {
		return c.unexpected(`statement or "}"`)
	}
	return nil
}

// compileStatement stages the statement's code and only hands it to the
// unit's writer once the whole statement compiled.
func (c *JackCompiler) compileStatement() error {
	outer := c.writer
	c.writer = NewVMWriter()
	defer func() { c.writer = outer }()

	line := c.token().line
	var err error
	switch c.token().terminal {
	case "let":
		err = c.compileLetStatement()
	case "if":
		err = c.compileIfStatement()
	case "while":
		err = c.compileWhileStatement()
	case "do":
		err = c.compileDoStatement()
	case "return":
		err = c.compileReturnStatement()
	}
	if err != nil {
		return atLine(err, line)
	}
	outer.Append(c.writer)
	return nil
}

func (c *JackCompiler) compileLetStatement() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	name, err := c.compileIdentifier("variable name")
	if err != nil {
		return err
	}
	symbol, err := c.resolve(name)
	if err != nil {
		return err
	}

	indexed := c.token().isSymbol("[")
	if indexed {
		if _, err := c.advance(); err != nil {
			return err
		}
		c.writer.WritePush(symbol.Segment(), symbol.index)
		if err := c.compileExpression(); err != nil {
			return err
		}
		if err := c.compileTerminal("]"); err != nil {
			return err
		}
		c.writer.WriteArithmetic(AddVMOperation)
	}

	if err := c.compileTerminal("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.compileTerminal(";"); err != nil {
		return err
	}

	if indexed {
		// The value is parked in temp 0 while the target address moves into that.
		c.writer.WritePop(TempVMSegment, 0)
		c.writer.WritePop(PointerVMSegment, 1)
		c.writer.WritePush(TempVMSegment, 0)
		c.writer.WritePop(ThatVMSegment, 0)
		return nil
	}
	c.writer.WritePop(symbol.Segment(), symbol.index)
	return nil
}

// compileCondition compiles `( expression )` followed by its negation.
func (c *JackCompiler) compileCondition() error {
	if err := c.compileTerminal("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.compileTerminal(")"); err != nil {
		return err
	}
	c.writer.WriteArithmetic(NotVMOperation)
	return nil
}

func (c *JackCompiler) compileBlock() error {
	if err := c.compileTerminal("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	return c.compileTerminal("}")
}

func (c *JackCompiler) compileIfStatement() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	elseLabel, endLabel := c.labels.pair("IF", "ELSE", "END")

	if err := c.compileCondition(); err != nil {
		return err
	}
	c.writer.WriteIf(elseLabel)
	if err := c.compileBlock(); err != nil {
		return err
	}
	c.writer.WriteGoto(endLabel)
	c.writer.WriteLabel(elseLabel)

	if c.token().isKeyword("else") {
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileBlock(); err != nil {
			return err
		}
	}
	c.writer.WriteLabel(endLabel)
	return nil
}

func (c *JackCompiler) compileWhileStatement() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	topLabel, endLabel := c.labels.pair("WHILE", "TOP", "END")

	c.writer.WriteLabel(topLabel)
	if err := c.compileCondition(); err != nil {
		return err
	}
	c.writer.WriteIf(endLabel)
	if err := c.compileBlock(); err != nil {
		return err
	}
	c.writer.WriteGoto(topLabel)
	c.writer.WriteLabel(endLabel)
	return nil
}

func (c *JackCompiler) compileDoStatement() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	name, err := c.compileIdentifier("subroutine call")
	if err != nil {
		return err
	}
	if err := c.compileSubroutineCall(name); err != nil {
		return err
	}
	if err := c.compileTerminal(";"); err != nil {
		return err
	}
	c.writer.WritePop(TempVMSegment, 0)
	return nil
}

func (c *JackCompiler) compileReturnStatement() error {
	if _, err := c.advance(); err != nil {
		return err
	}
	if c.token().isSymbol(";") {
		// every call leaves exactly one value on the stack
		c.writer.WritePush(ConstVMSegment, 0)
	} else if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.compileTerminal(";"); err != nil {
		return err
	}
	c.writer.WriteReturn()
	return nil
}

// compileExpression evaluates operators strictly left to right; Jack has no precedence.
func (c *JackCompiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}
	for {
		token := c.token()
		operation, ok := binaryOperators[token.terminal]
		if !ok || token.tokenType != SymbolToken {
			return nil
		}
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.writer.WriteArithmetic(operation)
	}
}

func (c *JackCompiler) compileTerm() error {
	token := c.token()
	switch token.tokenType {
	case IntegerConstant:
		value, err := token.asInt()
		if err != nil {
			return err
		}
		c.writer.WritePush(ConstVMSegment, value)
		_, err = c.advance()
		return err

	case StringConstant:
		c.writer.WriteStringConstant(token.terminal)
		_, err := c.advance()
		return err

	case Keyword:
		switch token.terminal {
		case "true":
			c.writer.WritePush(ConstVMSegment, 0)
			c.writer.WriteArithmetic(NotVMOperation)
		case "false", "null":
			c.writer.WritePush(ConstVMSegment, 0)
		case "this":
			c.writer.WritePush(PointerVMSegment, 0)
		default:
			return c.unexpected("term")
		}
		_, err := c.advance()
		return err

	case SymbolToken:
		if token.terminal == "(" {
			if _, err := c.advance(); err != nil {
				return err
			}
			if err := c.compileExpression(); err != nil {
				return err
			}
			return c.compileTerminal(")")
		}
		operation, ok := unaryOperators[token.terminal]
		if !ok {
			return c.unexpected("term")
		}
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.writer.WriteArithmetic(operation)
		return nil

	case Identifier:
		if _, err := c.advance(); err != nil {
			return err
		}
		return c.compileVarNameSubterm(token)
	}
	return c.unexpected("term")
}

// compileVarNameSubterm finishes a term that started with an identifier:
// a variable, an array element, or a subroutine call.
func (c *JackCompiler) compileVarNameSubterm(name Token) error {
	next := c.token()
	if next.isSymbol("(") || next.isSymbol(".") {
		return c.compileSubroutineCall(name)
	}

	symbol, err := c.resolve(name)
	if err != nil {
		return err
	}
	c.writer.WritePush(symbol.Segment(), symbol.index)
	if !next.isSymbol("[") {
		return nil
	}

	if _, err := c.advance(); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.compileTerminal("]"); err != nil {
		return err
	}
	c.writer.WriteArithmetic(AddVMOperation)
	c.writer.WritePop(PointerVMSegment, 1)
	c.writer.WritePush(ThatVMSegment, 0)
	return nil
}

// compileSubroutineCall compiles the rest of a call whose first identifier was consumed.
// A bare name calls a method on this; a declared variable qualifies a method call on
// that instance; anything else is taken as a class name.
func (c *JackCompiler) compileSubroutineCall(name Token) error {
	var (
		callee string
		nargs  MachineWord
	)

	if c.token().isSymbol(".") {
		if _, err := c.advance(); err != nil {
			return err
		}
		subroutine, err := c.compileIdentifier("subroutine name")
		if err != nil {
			return err
		}
		if symbol, err := c.symbols.Lookup(name.terminal); err == nil {
			if primitiveTypes[symbol.variableType] {
				return &SyntaxError{
					Line:     name.line,
					Expected: "object or class name",
					Found:    symbol.variableType + " variable " + strconv.Quote(name.terminal),
				}
			}
			c.writer.WritePush(symbol.Segment(), symbol.index)
			nargs = 1
			callee = symbol.variableType + "." + subroutine.terminal
		} else {
			callee = name.terminal + "." + subroutine.terminal
		}
	} else {
		c.writer.WritePush(PointerVMSegment, 0)
		nargs = 1
		callee = c.className + "." + name.terminal
	}

	if err := c.compileTerminal("("); err != nil {
		return err
	}
	count, err := c.compileExpressionList()
	if err != nil {
		return err
	}
	if err := c.compileTerminal(")"); err != nil {
		return err
	}
	c.writer.WriteCall(callee, nargs+count)
	return nil
}

func (c *JackCompiler) compileExpressionList() (MachineWord, error) {
	if c.token().isSymbol(")") {
		return 0, nil
	}
	var count MachineWord
	for {
		if err := c.compileExpression(); err != nil {
			return count, err
		}
		count++
		if !c.token().isSymbol(",") {
			return count, nil
		}
		if _, err := c.advance(); err != nil {
			return count, err
		}
	}
}
