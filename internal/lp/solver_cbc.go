package lp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const cbcPath = "cbc"

// cbcSolver shells out to the COIN-OR CBC binary. The problem is written in
// CPLEX LP format and the solution file parsed back. Honours context
// cancellation through exec.CommandContext.
type cbcSolver struct{}

func NewCBCSolver() Solver {
	return &cbcSolver{}
}

func (s *cbcSolver) Solve(ctx context.Context, problem *Problem) (Solution, error) {
	dir, err := os.MkdirTemp("", "cbc")
	if err != nil {
		return Solution{}, fmt.Errorf("cannot create cbc working directory: %w", err)
	}
	defer os.RemoveAll(dir)

	problemFile := filepath.Join(dir, "problem.lp")
	solutionFile := filepath.Join(dir, "solution.txt")

	f, err := os.Create(problemFile)
	if err != nil {
		return Solution{}, err
	}
	if err := problem.WriteLP(f); err != nil {
		f.Close()
		return Solution{}, fmt.Errorf("cannot encode problem: %w", err)
	}
	if err := f.Close(); err != nil {
		return Solution{}, err
	}

	cmd := exec.CommandContext(ctx, cbcPath, problemFile, "solve", "solution", solutionFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Solution{}, fmt.Errorf("cbc interrupted: %w", ctx.Err())
		}
		return Solution{}, fmt.Errorf("an error occurred during cbc execution: %v : %v", err, stderr.String())
	}

	output, err := os.ReadFile(solutionFile)
	if err != nil {
		return Solution{}, fmt.Errorf("cbc produced no solution file: %w", err)
	}

	return parseCBCSolution(string(output), problem)
}

// parseCBCSolution decodes a CBC solution file. The first line carries the
// solve status and objective, the remaining lines one variable each:
// index, name, value, reduced cost.
func parseCBCSolution(output string, problem *Problem) (Solution, error) {
	lines := strings.Split(output, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Solution{}, fmt.Errorf("cbc solution file is empty")
	}

	header := lines[0]
	if strings.Contains(header, "Infeasible") || strings.Contains(header, "infeasible") {
		return Solution{Status: StatusInfeasible}, nil
	}
	if !strings.Contains(header, "Optimal") {
		return Solution{}, fmt.Errorf("cbc reported unusable status: %q", header)
	}

	var objective float64
	if _, rest, ok := strings.Cut(header, "objective value"); ok {
		objective, _ = strconv.ParseFloat(strings.TrimSpace(rest), 64)
	}

	varsByName := make(map[string]Var, problem.NumVars())
	for j := 0; j < problem.NumVars(); j++ {
		varsByName[sanitizeLPName(problem.VarName(Var(j)))] = Var(j)
	}

	values := make([]bool, problem.NumVars())
	for _, line := range lines[1:] {
		fields := lo.Filter(strings.Fields(line), func(field string, _ int) bool { return field != "" })
		if len(fields) < 3 {
			continue
		}
		v, ok := varsByName[fields[1]]
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Solution{}, fmt.Errorf("invalid value in cbc output for %s: %w", fields[1], err)
		}
		values[v] = value > 0.5
	}

	return Solution{Status: StatusOptimal, Values: values, Objective: objective}, nil
}
