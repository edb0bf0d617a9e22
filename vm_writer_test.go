package main

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func TestVMWriterCommands(t *testing.T) {
	w := NewVMWriter()
	w.WriteFunction("Main.main", 2)
	w.WritePush(ConstVMSegment, 7)
	w.WritePop(LocalVMSegment, 1)
	w.WriteArithmetic(AddVMOperation)
	w.WriteArithmetic(MulVMOperation)
	w.WriteArithmetic(DivVMOperation)
	w.WriteLabel("WHILE_TOP0")
	w.WriteIf("WHILE_END0")
	w.WriteGoto("WHILE_TOP0")
	w.WriteCall("Output.printInt", 1)
	w.WriteReturn()

	expected := []string{
		"function Main.main 2",
		"push constant 7",
		"pop local 1",
		"add",
		"call Math.multiply 2",
		"call Math.divide 2",
		"label WHILE_TOP0",
		"if-goto WHILE_END0",
		"goto WHILE_TOP0",
		"call Output.printInt 1",
		"return",
	}
	if diff := deep.Equal(w.Lines(), expected); diff != nil {
		t.Error(diff)
	}
}

func TestVMWriterStringConstant(t *testing.T) {
	w := NewVMWriter()
	w.WriteStringConstant("Hi")
	expected := []string{
		"push constant 2",
		"call String.new 1",
		"push constant 72",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
	}
	if diff := deep.Equal(w.Lines(), expected); diff != nil {
		t.Error(diff)
	}
}

func TestVMWriterStringConstantCountsCharacters(t *testing.T) {
	w := NewVMWriter()
	w.WriteStringConstant("é")
	expected := []string{
		"push constant 1",
		"call String.new 1",
		"push constant 233",
		"call String.appendChar 2",
	}
	if diff := deep.Equal(w.Lines(), expected); diff != nil {
		t.Error(diff)
	}
}

func TestVMWriterSnapshot(t *testing.T) {
	w := NewVMWriter()
	w.WriteReturn()
	snapshot := w.Lines()
	snapshot[0] = "tampered"
	w.WritePush(ConstVMSegment, 0)

	if diff := deep.Equal(w.Lines(), []string{"return", "push constant 0"}); diff != nil {
		t.Error(diff)
	}
	if w.Len() != 2 {
		t.Errorf("expected 2 lines, got %d", w.Len())
	}

	staged := NewVMWriter()
	staged.WriteArithmetic(NotVMOperation)
	w.Append(staged)

	var out strings.Builder
	n, err := w.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "return\npush constant 0\nnot\n" {
		t.Errorf("unexpected output %q", got)
	}
	if n != int64(out.Len()) {
		t.Errorf("expected %d bytes reported, got %d", out.Len(), n)
	}
}

func TestLabelGenerator(t *testing.T) {
	var g labelGenerator
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		for _, prefix := range []string{"IF", "WHILE"} {
			first, second := g.pair(prefix, "A", "B")
			if first == second || seen[first] || seen[second] {
				t.Fatalf("labels %q/%q are not fresh", first, second)
			}
			seen[first], seen[second] = true, true
		}
	}
	first, second := (&labelGenerator{}).pair("IF", "ELSE", "END")
	if first != "IF_ELSE0" || second != "IF_END0" {
		t.Errorf("unexpected labels %q %q", first, second)
	}
}
