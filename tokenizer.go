package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	keywordRegex         = regexp.MustCompile(`^(class|constructor|function|method|field|static|var|int|char|boolean|void|true|false|null|this|let|do|if|else|while|return)`)
	symbolRegex          = regexp.MustCompile(`^[\{\}\[\]\(\)\.\,\;\+\-\*\/\&\|\<\>\=\~]`)
	integerConstantRegex = regexp.MustCompile(`^\d+`)
	stringConstantRegex  = regexp.MustCompile(`^"[^"\n]*"`)
	identifierRegex      = regexp.MustCompile(`^[a-zA-Z_]\w*`)

	// Order matters: on equal match length the earlier entry wins, so keywords beat identifiers.
	tokenRegexes = []struct {
		regex     *regexp.Regexp
		tokenType TokenType
	}{
		{keywordRegex, Keyword},
		{symbolRegex, SymbolToken},
		{integerConstantRegex, IntegerConstant},
		{stringConstantRegex, StringConstant},
		{identifierRegex, Identifier},
	}
)

func init() {
	for _, entry := range tokenRegexes {
		entry.regex.Longest()
	}
}

type TokenScanner interface {
	Token() Token
	Err() error
	Scan() bool
}

// Tokenizer lazily splits Jack source into tokens. It can be restarted with Reset.
type Tokenizer struct {
	source    string
	pos       int
	line      int
	nextToken Token
	err       error
}

func NewTokenizer(source string) *Tokenizer {
	return &Tokenizer{source: source, line: 1}
}

func NewTokenizerFromReader(r io.Reader) (*Tokenizer, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return NewTokenizer(string(source)), nil
}

func (t *Tokenizer) Reset() {
	t.pos = 0
	t.line = 1
	t.nextToken = Token{}
	t.err = nil
}

func (t *Tokenizer) Err() error {
	return t.err
}

func (t *Tokenizer) Token() Token {
	return t.nextToken
}

func (t *Tokenizer) Scan() bool {
	t.nextToken = Token{line: t.line}
	if t.err != nil {
		return false
	}
	if err := t.skipIgnored(); err != nil {
		t.err = err
		return false
	}
	t.nextToken.line = t.line
	if t.pos >= len(t.source) {
		return false
	}

	token, err := t.matchToken(t.source[t.pos:])
	if err != nil {
		t.err = err
		return false
	}
	t.nextToken = token
	return true
}

// skipIgnored advances past whitespace and comments, counting lines.
func (t *Tokenizer) skipIgnored() error {
	for t.pos < len(t.source) {
		rest := t.source[t.pos:]
		switch {
		case rest[0] == '\n':
			t.line++
			t.pos++
		case rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\r' || rest[0] == '\f' || rest[0] == '\v':
			t.pos++
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				t.pos = len(t.source)
			} else {
				t.pos += end
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return &LexicalError{Line: t.line, Reason: "unterminated block comment"}
			}
			comment := rest[:end+4]
			t.line += strings.Count(comment, "\n")
			t.pos += len(comment)
		default:
			return nil
		}
	}
	return nil
}

func (t *Tokenizer) matchToken(rest string) (Token, error) {
	if rest[0] == '"' && !stringConstantRegex.MatchString(rest) {
		return Token{}, &LexicalError{Line: t.line, Reason: "unterminated string constant"}
	}

	matchType := InvalidToken
	matchLength := 0
	for _, entry := range tokenRegexes {
		if match := entry.regex.FindStringIndex(rest); match != nil && match[1] > matchLength {
			matchType = entry.tokenType
			matchLength = match[1]
		}
	}
	if matchType == InvalidToken {
		return Token{}, &LexicalError{Line: t.line, Reason: fmt.Sprintf("illegal character %q", []rune(rest)[0])}
	}

	token := Token{tokenType: matchType, terminal: rest[:matchLength], line: t.line}
	t.pos += matchLength

	switch matchType {
	case StringConstant:
		token.terminal = token.terminal[1 : matchLength-1]
	case IntegerConstant:
		if _, err := token.asInt(); err != nil {
			return Token{}, err
		}
	}
	return token, nil
}
