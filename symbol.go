package main

type SymbolKind string

const (
	InvalidSymbol  SymbolKind = ""
	StaticSymbol   SymbolKind = "static"
	FieldSymbol    SymbolKind = "field"
	ArgumentSymbol SymbolKind = "argument"
	VarSymbol      SymbolKind = "var"
)

// scope returns the table level a kind is declared in.
func (k SymbolKind) scope() Scope {
	switch k {
	case StaticSymbol, FieldSymbol:
		return ClassScope
	default:
		return FunctionScope
	}
}

type Symbol struct {
	name         string
	kind         SymbolKind
	variableType string
	index        MachineWord
}

// Segment is the VM memory segment the symbol lives in.
func (s Symbol) Segment() VMSegmentType {
	switch s.kind {
	case StaticSymbol:
		return StaticVMSegment
	case FieldSymbol:
		return ThisVMSegment
	case ArgumentSymbol:
		return ArgumentVMSegment
	case VarSymbol:
		return LocalVMSegment
	}
	return InvalidVMSegmentType
}
