package main

import "fmt"

type Scope string

const (
	FunctionScope Scope = "function scope"
	ClassScope    Scope = "class scope"
)

type scopeTable struct {
	symbols map[string]Symbol
	counts  map[SymbolKind]MachineWord
}

func newScopeTable() scopeTable {
	return scopeTable{
		symbols: make(map[string]Symbol),
		counts:  make(map[SymbolKind]MachineWord),
	}
}

func (t *scopeTable) register(symbol Symbol) Symbol {
	symbol.index = t.counts[symbol.kind]
	t.counts[symbol.kind]++
	t.symbols[symbol.name] = symbol
	return symbol
}

// SymbolTable holds the identifiers visible while compiling one class.
// The function scope shadows the class scope.
type SymbolTable struct {
	classScopeTable    scopeTable
	functionScopeTable scopeTable
	logger             *Logger
}

func NewSymbolTable(logger *Logger) *SymbolTable {
	return &SymbolTable{
		classScopeTable:    newScopeTable(),
		functionScopeTable: newScopeTable(),
		logger:             logger,
	}
}

func (s *SymbolTable) table(scope Scope) *scopeTable {
	if scope == ClassScope {
		return &s.classScopeTable
	}
	return &s.functionScopeTable
}

func (s *SymbolTable) Declare(name, variableType string, kind SymbolKind) (Symbol, error) {
	if kind == InvalidSymbol {
		return Symbol{}, fmt.Errorf("cannot declare %q without a kind", name)
	}
	scope := kind.scope()
	table := s.table(scope)
	if _, ok := table.symbols[name]; ok {
		return Symbol{}, &DuplicateDeclarationError{Name: name, Scope: scope}
	}
	symbol := table.register(Symbol{name: name, kind: kind, variableType: variableType})
	s.logger.Debug("Registered symbol %q: %s %s #%d", name, kind, variableType, symbol.index)
	return symbol, nil
}

func (s *SymbolTable) Lookup(name string) (Symbol, error) {
	if symbol, ok := s.functionScopeTable.symbols[name]; ok {
		return symbol, nil
	}
	if symbol, ok := s.classScopeTable.symbols[name]; ok {
		return symbol, nil
	}
	return Symbol{}, &ResolutionError{Name: name}
}

// StartSubroutine drops the previous subroutine's arguments and locals.
// Methods receive the instance as hidden argument 0.
func (s *SymbolTable) StartSubroutine(className string, isMethod bool) {
	s.functionScopeTable = newScopeTable()
	if isMethod {
		s.functionScopeTable.register(Symbol{name: "this", kind: ArgumentSymbol, variableType: className})
	}
}

func (s *SymbolTable) Count(kind SymbolKind) MachineWord {
	return s.table(kind.scope()).counts[kind]
}
