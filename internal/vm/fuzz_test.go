package vm

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/funvibe/logex/internal/ast"
	"github.com/funvibe/logex/internal/evaluator"
	"github.com/funvibe/logex/internal/prettyprinter"
	"github.com/funvibe/logex/internal/value"
)

// fuzzLimits keep generated arithmetic small enough to run quickly.
var fuzzLimits = value.Limits{Precision: 20, MaxDigits: 200, MaxExponent: 64}

// byteSource turns fuzz input into choices. It yields zeros once drained,
// so every generated program is finite.
type byteSource struct {
	data []byte
	pos  int
}

func (s *byteSource) Intn(n int) int {
	if n <= 0 || s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// generator builds well-formed Logex programs from a byteSource. Loops are
// always bounded: for ranges are small literals and while loops count a
// private variable up to a literal.
type generator struct {
	src   *byteSource
	depth int
	loops int
	vars  []string
}

const (
	maxGenDepth      = 3
	maxGenStatements = 4
)

var (
	genInfixOps  = []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "^", "|", "v", "→", "↔", "⊽", "&", "<<", ">>"}
	genPrefixOps = []string{"-", "+", "!", "~"}
	genNumbers   = []string{"0", "1", "2", "3", "7", "10", "0.5", "1.25", "123456789", "0.001"}
	genBitmaps   = []string{"B0", "B1", "B01", "B1100", "B101010"}
)

func newGenerator(data []byte) *generator {
	return &generator{src: &byteSource{data: data}, vars: []string{"x", "y", "z"}}
}

func (g *generator) program() string {
	var sb strings.Builder
	// Every variable starts defined so that both executors see the same names.
	for i, v := range g.vars {
		fmt.Fprintf(&sb, "%s = %d\n", v, i+1)
	}
	count := g.src.Intn(maxGenStatements) + 1
	for i := 0; i < count; i++ {
		sb.WriteString(g.statement(true))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (g *generator) block(allowWhile bool) string {
	g.depth++
	defer func() { g.depth-- }()
	var sb strings.Builder
	count := g.src.Intn(2) + 1
	for i := 0; i < count; i++ {
		sb.WriteString("\n")
		sb.WriteString(g.statement(allowWhile))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (g *generator) statement(allowWhile bool) string {
	kinds := 2
	if g.depth < maxGenDepth {
		kinds = 6
	}
	switch g.src.Intn(kinds) {
	case 0:
		return fmt.Sprintf("%s = %s", g.variable(), g.expression())
	case 1:
		return g.expression()
	case 2:
		s := fmt.Sprintf("if %s:%s", g.expression(), g.block(allowWhile))
		if g.src.Intn(2) == 0 {
			s += "else:" + g.block(allowWhile)
		}
		return s + "end"
	case 3:
		step := ""
		if g.src.Intn(3) == 0 {
			step = fmt.Sprintf(", %d", g.src.Intn(3))
		}
		return fmt.Sprintf("for %s in range(%d, %d%s):%send",
			g.variable(), g.src.Intn(3), g.src.Intn(5), step, g.block(allowWhile))
	case 4:
		if !allowWhile {
			return g.expression()
		}
		g.loops++
		c := fmt.Sprintf("w%d", g.loops)
		return fmt.Sprintf("%s = 0\nwhile %s < %d:\n%s = %s + 1%send",
			c, c, g.src.Intn(4), c, c, g.block(true))
	default:
		g.loops++
		c := fmt.Sprintf("w%d", g.loops)
		return fmt.Sprintf("%s = 0\ndo:\n%s = %s + 1%swhile %s < %d",
			c, c, c, g.block(false), c, g.src.Intn(4))
	}
}

func (g *generator) variable() string {
	return g.vars[g.src.Intn(len(g.vars))]
}

func (g *generator) expression() string {
	g.depth++
	defer func() { g.depth-- }()
	if g.depth > maxGenDepth+2 {
		return g.atom()
	}
	switch g.src.Intn(6) {
	case 0, 1:
		return g.atom()
	case 2:
		return fmt.Sprintf("%s %s %s", g.expression(), genInfixOps[g.src.Intn(len(genInfixOps))], g.expression())
	case 3:
		return fmt.Sprintf("%s%s", genPrefixOps[g.src.Intn(len(genPrefixOps))], g.atom())
	case 4:
		return fmt.Sprintf("(%s) ** %d", g.expression(), g.src.Intn(4))
	default:
		return g.call()
	}
}

func (g *generator) atom() string {
	switch g.src.Intn(4) {
	case 0:
		return genNumbers[g.src.Intn(len(genNumbers))]
	case 1:
		return genBitmaps[g.src.Intn(len(genBitmaps))]
	case 2:
		return `"s"`
	default:
		return g.variable()
	}
}

func (g *generator) call() string {
	switch g.src.Intn(6) {
	case 0:
		return fmt.Sprintf("llen(rpush(list(), %s))", g.expression())
	case 1:
		return fmt.Sprintf("num(%s)", g.atom())
	case 2:
		return fmt.Sprintf("bmp(%s)", g.atom())
	case 3:
		return fmt.Sprintf("bcount(%s, 0, %d)", g.atom(), g.src.Intn(8))
	case 4:
		return fmt.Sprintf("str(%s)", g.atom())
	default:
		return fmt.Sprintf("bget(%s, %d)", g.atom(), g.src.Intn(4))
	}
}

// mutate rewrites operators and literals in place, driven by rnd. Loop
// conditions and range bounds are never touched.
func mutate(rnd *rand.Rand, node ast.Node) {
	switch n := node.(type) {
	case *ast.Program:
		for _, s := range n.Statements {
			mutate(rnd, s)
		}
	case *ast.BlockStatement:
		for _, s := range n.Statements {
			mutate(rnd, s)
		}
	case *ast.ExpressionStatement:
		mutate(rnd, n.Expression)
	case *ast.AssignStatement:
		mutate(rnd, n.Value)
	case *ast.IfStatement:
		mutate(rnd, n.Condition)
		mutate(rnd, n.Consequence)
		if n.Alternative != nil {
			mutate(rnd, n.Alternative)
		}
	case *ast.WhileStatement, *ast.DoWhileStatement:
		// left alone: their counters keep the loops finite
	case *ast.ForStatement:
		mutate(rnd, n.Body)
	case *ast.InfixExpression:
		if rnd.Intn(3) == 0 {
			n.Operator = genInfixOps[rnd.Intn(len(genInfixOps))]
		}
		mutate(rnd, n.Left)
		mutate(rnd, n.Right)
	case *ast.PrefixExpression:
		if rnd.Intn(3) == 0 {
			n.Operator = genPrefixOps[rnd.Intn(len(genPrefixOps))]
		}
		mutate(rnd, n.Right)
	case *ast.NumberLiteral:
		if rnd.Intn(3) == 0 {
			n.Value = genNumbers[rnd.Intn(len(genNumbers))]
		}
	case *ast.CallExpression:
		for _, arg := range n.Arguments {
			mutate(rnd, arg)
		}
	}
}

func fuzzSeeds(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{2, 3, 1, 4, 0, 5, 2, 2, 9, 1})
	f.Add([]byte{5, 5, 5, 5, 5, 5, 5, 5})
	f.Add(bytes.Repeat([]byte{3, 1, 2}, 20))
}

// FuzzBackendsAgree checks generated programs on both executors.
func FuzzBackendsAgree(f *testing.F) {
	fuzzSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		src := newGenerator(data).program()
		program, err := evaluator.Parse(src, "")
		if err != nil {
			t.Fatalf("generated program does not parse: %v\n%s", err, src)
		}
		checkAgree(t, program, fuzzLimits)
	})
}

// FuzzMutatedAgree mutates a parsed program before comparing executors, so
// operator and type combinations the generator avoids are covered too.
func FuzzMutatedAgree(f *testing.F) {
	fuzzSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		src := newGenerator(data).program()
		program, err := evaluator.Parse(src, "")
		if err != nil {
			t.Fatalf("generated program does not parse: %v\n%s", err, src)
		}
		seed := int64(len(data))
		for _, b := range data {
			seed = seed*31 + int64(b)
		}
		mutate(rand.New(rand.NewSource(seed)), program)
		t.Logf("mutated program:\n%s", prettyprinter.Print(program))
		checkAgree(t, program, fuzzLimits)
	})
}

// FuzzSaveLoad checks that every compiled program survives the file format
// byte for byte.
func FuzzSaveLoad(f *testing.F) {
	fuzzSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		src := newGenerator(data).program()
		program, err := evaluator.Parse(src, "fuzz.lx")
		if err != nil {
			t.Fatalf("generated program does not parse: %v", err)
		}
		compiled, err := Compile(program, fuzzLimits)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		first, err := compiled.Bytes()
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		loaded, err := Decode(first, fuzzLimits)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		second, err := loaded.Bytes()
		if err != nil {
			t.Fatalf("save again: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("bytecode changed across save/load for\n%s", src)
		}
	})
}

// FuzzDecode feeds arbitrary bytes to the loader. It must fail cleanly or
// produce a program that runs without panicking.
func FuzzDecode(f *testing.F) {
	for _, src := range []string{"1 + 2", "x = B101\nbcount(x, 0, 2)", "i = 0\nwhile i < 2: i = i + 1 end"} {
		program, err := evaluator.Parse(src, "seed.lx")
		if err != nil {
			f.Fatal(err)
		}
		compiled, err := Compile(program, fuzzLimits)
		if err != nil {
			f.Fatal(err)
		}
		data, err := compiled.Bytes()
		if err != nil {
			f.Fatal(err)
		}
		f.Add(data)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Decode(data, fuzzLimits)
		if err != nil {
			return
		}
		machine := New(nil, nil, nil, 64)
		machine.Limits = fuzzLimits
		if len(p.Code) > 256 {
			return // arbitrary jumps may loop; only run short programs
		}
		steps := 0
		for _, ins := range p.Code {
			if ins.Op == OP_JMP || ins.Op == OP_JMP_IF_TRUE || ins.Op == OP_JMP_IF_FALSE {
				steps++
			}
		}
		if steps > 0 {
			return
		}
		_, _ = machine.Run(p)
	})
}
