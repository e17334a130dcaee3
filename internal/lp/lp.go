package lp

import (
	"fmt"
	"io"
	"strings"
)

// Var is the index of a column in a Problem.
type Var int

// Term is a coefficient applied to a single variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression over the problem's variables. The zero value is
// the empty expression (constant 0).
type Expr []Term

func (e Expr) Add(v Var, coef float64) Expr {
	return append(e, Term{Var: v, Coef: coef})
}

// Sense of a linear constraint.
type Sense int

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	default:
		return "="
	}
}

// Constraint is a named linear (in)equality.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Problem is an integer linear program over binary variables only.
type Problem struct {
	name        string
	cols        []string
	constraints []Constraint
	objective   Expr
	maximize    bool
}

func NewProblem(name string) *Problem {
	return &Problem{name: name}
}

func (p *Problem) Name() string { return p.name }

// AddBinary creates a new binary column and returns its index.
func (p *Problem) AddBinary(name string) Var {
	p.cols = append(p.cols, name)
	return Var(len(p.cols) - 1)
}

func (p *Problem) AddConstraint(c Constraint) {
	p.constraints = append(p.constraints, c)
}

func (p *Problem) AddConstraints(cs []Constraint) {
	p.constraints = append(p.constraints, cs...)
}

// SetObjective replaces the objective expression. The objective never carries
// a constant term.
func (p *Problem) SetObjective(obj Expr) {
	p.objective = obj
}

// SetMaximize flips the optimisation direction from the default (minimise).
func (p *Problem) SetMaximize() {
	p.maximize = true
}

func (p *Problem) Maximize() bool { return p.maximize }

func (p *Problem) NumVars() int { return len(p.cols) }

func (p *Problem) NumConstraints() int { return len(p.constraints) }

func (p *Problem) VarName(v Var) string { return p.cols[v] }

func (p *Problem) Constraints() []Constraint { return p.constraints }

func (p *Problem) Objective() Expr { return p.objective }

// WriteLP encodes the problem in CPLEX LP file format.
//
// An empty expression is written as a zero multiple of the first column, since
// the format has no way to state a variable-free row; this keeps genuinely
// unsatisfiable rows (0 = k, k > 0) visible to the backend.
func (p *Problem) WriteLP(w io.Writer) error {
	if p.NumVars() == 0 {
		return fmt.Errorf("problem %q has no variables", p.name)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "\\ Problem: %s\n", p.name)
	if p.maximize {
		builder.WriteString("Maximize\n")
	} else {
		builder.WriteString("Minimize\n")
	}
	builder.WriteString(" obj:")
	p.writeExpr(&builder, p.objective)
	builder.WriteString("\nSubject To\n")

	for i, c := range p.constraints {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("c%d", i+1)
		}
		fmt.Fprintf(&builder, " %s:", sanitizeLPName(name))
		p.writeExpr(&builder, c.Expr)
		fmt.Fprintf(&builder, " %s %g\n", c.Sense, c.RHS)
	}

	builder.WriteString("Binary\n")
	for _, col := range p.cols {
		fmt.Fprintf(&builder, " %s\n", sanitizeLPName(col))
	}
	builder.WriteString("End\n")

	_, err := io.WriteString(w, builder.String())
	return err
}

func (p *Problem) writeExpr(builder *strings.Builder, expr Expr) {
	if len(expr) == 0 {
		fmt.Fprintf(builder, " 0 %s", sanitizeLPName(p.cols[0]))
		return
	}
	for _, term := range expr {
		if term.Coef < 0 {
			fmt.Fprintf(builder, " - %g %s", -term.Coef, sanitizeLPName(p.cols[term.Var]))
		} else {
			fmt.Fprintf(builder, " + %g %s", term.Coef, sanitizeLPName(p.cols[term.Var]))
		}
	}
}

// sanitizeLPName replaces characters the LP format reserves.
func sanitizeLPName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '+', '-', '*', '<', '>', '=':
			return '_'
		default:
			return r
		}
	}, name)
}
