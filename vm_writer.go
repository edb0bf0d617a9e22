package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type VMSegmentType string

const (
	InvalidVMSegmentType VMSegmentType = ""
	ConstVMSegment       VMSegmentType = "constant"
	ArgumentVMSegment    VMSegmentType = "argument"
	LocalVMSegment       VMSegmentType = "local"
	StaticVMSegment      VMSegmentType = "static"
	ThisVMSegment        VMSegmentType = "this"
	ThatVMSegment        VMSegmentType = "that"
	PointerVMSegment     VMSegmentType = "pointer"
	TempVMSegment        VMSegmentType = "temp"
)

type VMOperation string

const (
	AddVMOperation VMOperation = "add"
	SubVMOperation VMOperation = "sub"
	NegVMOperation VMOperation = "neg"
	EqVMOperation  VMOperation = "eq"
	GtVMOperation  VMOperation = "gt"
	LtVMOperation  VMOperation = "lt"
	AndVMOperation VMOperation = "and"
	OrVMOperation  VMOperation = "or"
	NotVMOperation VMOperation = "not"
	MulVMOperation VMOperation = "mul"
	DivVMOperation VMOperation = "div"
)

// VMWriter accumulates VM instructions in emission order. Lines are only ever appended.
type VMWriter struct {
	lines []string
}

func NewVMWriter() *VMWriter {
	return &VMWriter{}
}

func (w *VMWriter) WriteCommand(command string) {
	w.lines = append(w.lines, command)
}

// Append copies the instructions staged in another writer.
func (w *VMWriter) Append(other *VMWriter) {
	w.lines = append(w.lines, other.lines...)
}

func (w *VMWriter) WritePush(segment VMSegmentType, index MachineWord) {
	w.WriteCommand(fmt.Sprintf("push %s %d", segment, index))
}

func (w *VMWriter) WritePop(segment VMSegmentType, index MachineWord) {
	w.WriteCommand(fmt.Sprintf("pop %s %d", segment, index))
}

func (w *VMWriter) WriteStringConstant(constant string) {
	w.WritePush(ConstVMSegment, MachineWord(utf8.RuneCountInString(constant)))
	w.WriteCall("String.new", 1)
	for _, c := range constant {
		// String.appendChar returns the string, leaving it on the stack for the next char
		w.WritePush(ConstVMSegment, MachineWord(c))
		w.WriteCall("String.appendChar", 2)
	}
}

func (w *VMWriter) WriteArithmetic(operation VMOperation) {
	switch operation {
	case DivVMOperation:
		w.WriteCall("Math.divide", 2)
	case MulVMOperation:
		w.WriteCall("Math.multiply", 2)
	default:
		w.WriteCommand(string(operation))
	}
}

func (w *VMWriter) WriteLabel(label string) {
	w.WriteCommand("label " + label)
}

func (w *VMWriter) WriteGoto(label string) {
	w.WriteCommand("goto " + label)
}

func (w *VMWriter) WriteIf(label string) {
	w.WriteCommand("if-goto " + label)
}

func (w *VMWriter) WriteCall(label string, nargs MachineWord) {
	w.WriteCommand("call " + label + " " + strconv.FormatUint(uint64(nargs), 10))
}

func (w *VMWriter) WriteFunction(label string, nlocals MachineWord) {
	w.WriteCommand("function " + label + " " + strconv.FormatUint(uint64(nlocals), 10))
}

func (w *VMWriter) WriteReturn() {
	w.WriteCommand("return")
}

func (w *VMWriter) Len() int {
	return len(w.lines)
}

// Lines returns a copy of everything written so far.
func (w *VMWriter) Lines() []string {
	lines := make([]string, len(w.lines))
	copy(lines, w.lines)
	return lines
}

// WriteTo persists the instructions one per line.
func (w *VMWriter) WriteTo(out io.Writer) (int64, error) {
	var b strings.Builder
	for _, line := range w.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	n, err := io.WriteString(out, b.String())
	return int64(n), err
}
