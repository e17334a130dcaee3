package lp

import (
	"context"
	"fmt"

	"github.com/lukpank/go-glpk/glpk"
)

// glpkSolver solves problems in-process through the GLPK C library.
//
// The binding exposes no time-limit or interrupt hook, so the context is only
// checked between the simplex and branch-and-bound phases; callers needing a
// hard wall-clock limit should prefer the CBC backend.
type glpkSolver struct{}

func NewGLPKSolver() Solver {
	return &glpkSolver{}
}

func (s *glpkSolver) Solve(ctx context.Context, problem *Problem) (Solution, error) {
	if err := ctx.Err(); err != nil {
		return Solution{}, fmt.Errorf("glpk solve aborted: %w", err)
	}

	prob := glpk.New()
	defer prob.Delete()

	prob.SetProbName(problem.Name())
	if problem.Maximize() {
		prob.SetObjDir(glpk.ObjDir(glpk.MAX))
	} else {
		prob.SetObjDir(glpk.ObjDir(glpk.MIN))
	}

	prob.AddCols(problem.NumVars())
	for j := 0; j < problem.NumVars(); j++ {
		prob.SetColName(j+1, problem.VarName(Var(j)))
		prob.SetColKind(j+1, glpk.VarType(glpk.BV))
	}
	for _, term := range problem.Objective() {
		prob.SetObjCoef(int(term.Var)+1, term.Coef)
	}

	constraints := problem.Constraints()
	prob.AddRows(len(constraints))
	for i, c := range constraints {
		prob.SetRowName(i+1, c.Name)
		switch c.Sense {
		case LessOrEqual:
			prob.SetRowBnds(i+1, glpk.BndsType(glpk.UP), 0, c.RHS)
		case GreaterOrEqual:
			prob.SetRowBnds(i+1, glpk.BndsType(glpk.LO), c.RHS, 0)
		case Equal:
			prob.SetRowBnds(i+1, glpk.BndsType(glpk.FX), c.RHS, c.RHS)
		}
		indices := make([]int32, len(c.Expr))
		coefs := make([]float64, len(c.Expr))
		for k, term := range c.Expr {
			indices[k] = int32(term.Var) + 1
			coefs[k] = term.Coef
		}
		prob.SetMatRow(i+1, indices, coefs)
	}

	smcp := glpk.NewSmcp()
	smcp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := prob.Simplex(smcp); err != nil {
		return Solution{}, fmt.Errorf("glpk simplex failed: %w", err)
	}
	if status := prob.Status(); status == glpk.NOFEAS {
		return Solution{Status: StatusInfeasible}, nil
	}

	if err := ctx.Err(); err != nil {
		return Solution{}, fmt.Errorf("glpk solve aborted: %w", err)
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := prob.Intopt(iocp); err != nil {
		return Solution{}, fmt.Errorf("glpk integer optimizer failed: %w", err)
	}

	switch status := prob.MipStatus(); status {
	case glpk.OPT, glpk.FEAS:
		values := make([]bool, problem.NumVars())
		for j := range values {
			values[j] = prob.MipColVal(j+1) > 0.5
		}
		// Without an objective every feasible point is optimal; with one, an
		// unproven incumbent must not be reported as optimal.
		solutionStatus := StatusOptimal
		if status == glpk.FEAS && len(problem.Objective()) > 0 {
			solutionStatus = StatusFeasible
		}
		return Solution{
			Status:    solutionStatus,
			Values:    values,
			Objective: prob.MipObjVal(),
		}, nil
	case glpk.NOFEAS:
		return Solution{Status: StatusInfeasible}, nil
	default:
		return Solution{}, fmt.Errorf("glpk returned unusable MIP status %v", status)
	}
}
