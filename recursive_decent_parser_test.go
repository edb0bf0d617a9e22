package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"golang.org/x/sync/errgroup"
)

func mustCompile(t *testing.T, source string) []string {
	t.Helper()
	lines, err := CompileSource(source, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return lines
}

// assertLabelsBalanced checks every label is declared once and every declared label is jumped to.
func assertLabelsBalanced(t *testing.T, lines []string) int {
	t.Helper()
	declared := map[string]int{}
	referenced := map[string]bool{}
	for _, line := range lines {
		fields := strings.Fields(line)
		switch fields[0] {
		case "label":
			declared[fields[1]]++
		case "goto", "if-goto":
			referenced[fields[1]] = true
		}
	}
	for label, count := range declared {
		if count != 1 {
			t.Errorf("label %s declared %d times", label, count)
		}
		if !referenced[label] {
			t.Errorf("label %s is never referenced", label)
		}
	}
	for label := range referenced {
		if declared[label] == 0 {
			t.Errorf("branch to undeclared label %s", label)
		}
	}
	return len(declared)
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name:   "Hello",
			source: `class Main { function void main() { do Output.printString("x"); return; } }`,
			expected: []string{
				"function Main.main 0",
				"push constant 1",
				"call String.new 1",
				"push constant 120",
				"call String.appendChar 2",
				"call Output.printString 1",
				"pop temp 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Locals And Left To Right Operators",
			source: `
class Main {
  function int f(int a) {
    var int x, y;
    var boolean b;
    let x = a + 2 * 3;
    return x;
  }
}`,
			expected: []string{
				"function Main.f 3",
				"push argument 0",
				"push constant 2",
				"add",
				"push constant 3",
				"call Math.multiply 2",
				"pop local 0",
				"push local 0",
				"return",
			},
		},
		{
			name: "Constructor And Methods",
			source: `
class Point {
  field int x, y;
  static int count;

  constructor Point new(int ax, int ay) {
    let x = ax;
    let y = ay;
    let count = count + 1;
    return this;
  }

  method int getX() { return x; }

  method void move(int dx) {
    let x = x + dx;
    return;
  }
}`,
			expected: []string{
				"function Point.new 0",
				"push constant 2",
				"call Memory.alloc 1",
				"pop pointer 0",
				"push argument 0",
				"pop this 0",
				"push argument 1",
				"pop this 1",
				"push static 0",
				"push constant 1",
				"add",
				"pop static 0",
				"push pointer 0",
				"return",
				"function Point.getX 0",
				"push argument 0",
				"pop pointer 0",
				"push this 0",
				"return",
				"function Point.move 0",
				"push argument 0",
				"pop pointer 0",
				"push this 0",
				"push argument 1",
				"add",
				"pop this 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Control Flow",
			source: `
class Main {
  function void main() {
    var int i;
    let i = 0;
    while (i < 10) {
      if (i = 5) { let i = i + 2; } else { let i = i + 1; }
    }
    if (true) { }
    return;
  }
}`,
			expected: []string{
				"function Main.main 1",
				"push constant 0",
				"pop local 0",
				"label WHILE_TOP0",
				"push local 0",
				"push constant 10",
				"lt",
				"not",
				"if-goto WHILE_END0",
				"push local 0",
				"push constant 5",
				"eq",
				"not",
				"if-goto IF_ELSE1",
				"push local 0",
				"push constant 2",
				"add",
				"pop local 0",
				"goto IF_END1",
				"label IF_ELSE1",
				"push local 0",
				"push constant 1",
				"add",
				"pop local 0",
				"label IF_END1",
				"goto WHILE_TOP0",
				"label WHILE_END0",
				"push constant 0",
				"not",
				"not",
				"if-goto IF_ELSE2",
				"goto IF_END2",
				"label IF_ELSE2",
				"label IF_END2",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Arrays",
			source: `
class Main {
  function void main() {
    var Array a;
    var int v;
    let a = Array.new(3);
    let a[1] = 7;
    let v = a[1] + a[2];
    return;
  }
}`,
			expected: []string{
				"function Main.main 2",
				"push constant 3",
				"call Array.new 1",
				"pop local 0",
				"push local 0",
				"push constant 1",
				"add",
				"push constant 7",
				"pop temp 0",
				"pop pointer 1",
				"push temp 0",
				"pop that 0",
				"push local 0",
				"push constant 1",
				"add",
				"pop pointer 1",
				"push that 0",
				"push local 0",
				"push constant 2",
				"add",
				"pop pointer 1",
				"push that 0",
				"add",
				"pop local 1",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Calls And Unary Operators",
			source: `
class Game {
  field Ball ball;

  method void run() {
    var boolean done;
    let done = false;
    do ball.move(1, -2);
    do step();
    let done = ~done;
    do Sys.wait(null);
    return;
  }
}`,
			expected: []string{
				"function Game.run 1",
				"push argument 0",
				"pop pointer 0",
				"push constant 0",
				"pop local 0",
				"push this 0",
				"push constant 1",
				"push constant 2",
				"neg",
				"call Ball.move 3",
				"pop temp 0",
				"push pointer 0",
				"call Game.step 1",
				"pop temp 0",
				"push local 0",
				"not",
				"pop local 0",
				"push constant 0",
				"call Sys.wait 1",
				"pop temp 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Nested Expressions",
			source: `
class Main {
  static int total;
  function int sum(int a, int b) {
    let total = (a - b) / (a | b) & (~(a > b));
    return Main.sum(a, b) + total;
  }
}`,
			expected: []string{
				"function Main.sum 0",
				"push argument 0",
				"push argument 1",
				"sub",
				"push argument 0",
				"push argument 1",
				"or",
				"call Math.divide 2",
				"push argument 0",
				"push argument 1",
				"gt",
				"not",
				"and",
				"pop static 0",
				"push argument 0",
				"push argument 1",
				"call Main.sum 2",
				"push static 0",
				"add",
				"return",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := mustCompile(t, tt.source)
			if diff := deep.Equal(lines, tt.expected); diff != nil {
				t.Error(diff)
			}
			assertLabelsBalanced(t, lines)
		})
	}
}

func TestCompileLabelsAreFresh(t *testing.T) {
	source := `
class Main {
  function void a() {
    var int i;
    while (i < 3) { if (i) { while (false) { } } else { if (i) { } } }
    return;
  }
  function void b() {
    if (true) { } else { }
    while (true) { }
    return;
  }
}`
	lines := mustCompile(t, source)
	// two ifs and two whiles in a, one of each in b
	if got := assertLabelsBalanced(t, lines); got != 2*6 {
		t.Errorf("expected %d labels, got %d", 2*6, got)
	}
}

func TestCompileLocalCountIgnoresTemporaries(t *testing.T) {
	source := `
class Main {
  function void main() {
    var Array a, b;
    let a[b[0]] = b[a[1]] * Main.len("ab");
    return;
  }
}`
	lines := mustCompile(t, source)
	if lines[0] != "function Main.main 2" {
		t.Errorf("expected 2 locals in header, got %q", lines[0])
	}
}

func TestCompileErrors(t *testing.T) {
	t.Run("Undeclared Variable", func(t *testing.T) {
		source := "class Main {\n  function void main() {\n    var int x;\n    let x = 1 + y;\n    return;\n  }\n}"
		writer := NewVMWriter()
		err := NewJackCompiler(NewTokenizer(source), writer, nil).Compile()

		var resolution *ResolutionError
		if !errors.As(err, &resolution) {
			t.Fatalf("expected ResolutionError, got %v", err)
		}
		if resolution.Name != "y" || resolution.Line != 4 {
			t.Errorf("unexpected error %+v", resolution)
		}
		if diff := deep.Equal(writer.Lines(), []string{"function Main.main 1"}); diff != nil {
			t.Errorf("the failing statement must not emit code: %v", diff)
		}
	})

	t.Run("Undeclared Assignment Target", func(t *testing.T) {
		_, err := CompileSource("class Main { function void main() { let y = 1; return; } }", nil)
		var resolution *ResolutionError
		if !errors.As(err, &resolution) || resolution.Name != "y" || resolution.Line != 1 {
			t.Fatalf("expected ResolutionError for y, got %v", err)
		}
	})

	t.Run("Resolution Error Reports Statement Line", func(t *testing.T) {
		source := "class Main {\n  function void main() {\n    var int x;\n    if (x) {\n      let x =\n        y;\n    }\n    return;\n  }\n}"
		_, err := CompileSource(source, nil)
		var resolution *ResolutionError
		if !errors.As(err, &resolution) {
			t.Fatalf("expected ResolutionError, got %v", err)
		}
		if resolution.Name != "y" || resolution.Line != 5 {
			t.Errorf("expected y at the let on line 5, got %+v", resolution)
		}
	})

	t.Run("Method Call On Primitive", func(t *testing.T) {
		_, err := CompileSource("class Main {\n function void main() {\n var int x;\n do x.foo();\n return;\n }\n}", nil)
		var syntax *SyntaxError
		if !errors.As(err, &syntax) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
		if syntax.Line != 4 || !strings.Contains(syntax.Found, `"x"`) {
			t.Errorf("unexpected error %+v", syntax)
		}
	})

	t.Run("Missing Semicolon", func(t *testing.T) {
		_, err := CompileSource("class Main {\n function void main() { do f() return; } }", nil)
		var syntax *SyntaxError
		if !errors.As(err, &syntax) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
		expected := &SyntaxError{Line: 2, Expected: `";"`, Found: `keyword "return"`}
		if diff := deep.Equal(syntax, expected); diff != nil {
			t.Error(diff)
		}
	})

	t.Run("Trailing Tokens", func(t *testing.T) {
		_, err := CompileSource("class A { } class B { }", nil)
		var syntax *SyntaxError
		if !errors.As(err, &syntax) || syntax.Expected != "end of input" {
			t.Fatalf("expected trailing token SyntaxError, got %v", err)
		}
	})

	t.Run("Unexpected End", func(t *testing.T) {
		_, err := CompileSource("class A { function void f() {", nil)
		var syntax *SyntaxError
		if !errors.As(err, &syntax) || syntax.Found != "end of input" {
			t.Fatalf("expected SyntaxError at end of input, got %v", err)
		}
	})

	tests := []struct {
		name   string
		source string
		target interface{}
	}{
		{"Empty Source", "", new(*SyntaxError)},
		{"Not A Statement", "class A { function void f() { x = 1; } }", new(*SyntaxError)},
		{"Bad Term", "class A { function void f() { return ); } }", new(*SyntaxError)},
		{"Var After Statement", "class A { function void f() { return; var int x; } }", new(*SyntaxError)},
		{"Duplicate Field", "class A { field int x; static int x; }", new(*DuplicateDeclarationError)},
		{"Duplicate Local", "class A { function void f(int a) { var int a; return; } }", new(*DuplicateDeclarationError)},
		{"Illegal Character", "class A { function void f() { return 1 # 2; } }", new(*LexicalError)},
		{"Out Of Range", "class A { function int f() { return 40000; } }", new(*RangeError)},
		{"Method On Char Argument", "class A { function void f(char c) { do c.print(); return; } }", new(*SyntaxError)},
		{"Method On Boolean Field", "class A { field boolean b; method int f() { return b.size(); } }", new(*SyntaxError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource(tt.source, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.As(err, tt.target) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if !strings.HasPrefix(err.Error(), "line ") {
				t.Errorf("error %q does not carry a line", err)
			}
		})
	}
}

func TestCompileUnitsIndependently(t *testing.T) {
	sources := []string{
		"class A { function void f() { var int x; while (x) { let x = x - 1; } return; } }",
		"class B { function void g() { var boolean x; while (x) { let x = false; } return; } }",
	}
	expectedHeads := []string{"function A.f 1", "function B.g 1"}

	var g errgroup.Group
	results := make([][]string, len(sources))
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			lines, err := CompileSource(source, nil)
			results[i] = lines
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for i, lines := range results {
		if lines[0] != expectedHeads[i] {
			t.Errorf("unit %d: unexpected header %q", i, lines[0])
		}
		if lines[1] != "label WHILE_TOP0" {
			t.Errorf("unit %d: label counter leaked between units, got %q", i, lines[1])
		}
		if lines[4] != "if-goto WHILE_END0" {
			t.Errorf("unit %d: unexpected branch %q", i, lines[4])
		}
	}
}
