// Package cfabuild constructs internal/cfa graphs from internal/ast
// programs, grounded on pycpa/cfa.py's CFACreator visitor: one CFA node
// per control-flow join/branch point, a node stack implicit in the
// recursive build functions, and explicit break/continue target stacks
// for loop exits.
package cfabuild

import (
	"fmt"

	"reachcheck/internal/ast"
	"reachcheck/internal/builtinrx"
	"reachcheck/internal/cfa"
)

type loopTargets struct {
	breakTo    cfa.NodeID
	continueTo cfa.NodeID
}

type builder struct {
	g         *cfa.Graph
	errorNode cfa.NodeID
	funcs     map[string]*ast.Function
	loops     []loopTargets
}

// Build constructs the whole-program CFA for prog. Every reach_error()
// call edge leads to a single shared error sink node.
func Build(prog *ast.Program) (*cfa.Graph, error) {
	b := &builder{g: cfa.NewGraph(), funcs: map[string]*ast.Function{}}
	for _, fn := range prog.Functions {
		b.funcs[fn.Name] = fn
	}
	b.errorNode = b.g.AddNode("__error__")
	b.g.MarkError(b.errorNode)

	// Pre-create entry/exit nodes for every function so forward calls
	// resolve without a second pass.
	for _, fn := range prog.Functions {
		entry := b.g.AddNode(fn.Name)
		exit := b.g.AddNode(fn.Name)
		b.g.Entries[fn.Name] = entry
		b.g.Exits[fn.Name] = exit
	}

	for _, fn := range prog.Functions {
		if err := b.buildFunction(fn); err != nil {
			return nil, err
		}
	}
	return b.g, nil
}

func (b *builder) buildFunction(fn *ast.Function) error {
	entry := b.g.Entries[fn.Name]
	exit := b.g.Exits[fn.Name]
	end, err := b.buildStmts(fn.Body, entry)
	if err != nil {
		return err
	}
	if end >= 0 {
		b.g.AddEdge(end, exit, cfa.Instruction{Kind: cfa.Nop})
	}
	return nil
}

// buildStmts threads stmts from cur, returning the node reached after the
// last statement, or -1 if control cannot fall off the end (e.g. every
// branch returns).
func (b *builder) buildStmts(stmts []ast.Stmt, cur cfa.NodeID) (cfa.NodeID, error) {
	for _, s := range stmts {
		next, err := b.buildStmt(s, cur)
		if err != nil {
			return -1, err
		}
		if next < 0 {
			return -1, nil
		}
		cur = next
	}
	return cur, nil
}

func (b *builder) buildStmt(s ast.Stmt, cur cfa.NodeID) (cfa.NodeID, error) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		next := b.g.AddNode("")
		b.g.AddEdge(cur, next, cfa.Instruction{Kind: cfa.Statement, AssignTo: st.Target, Value: st.Value})
		return next, nil

	case *ast.ExprStmt:
		next := b.g.AddNode("")
		b.g.AddEdge(cur, next, cfa.Instruction{Kind: cfa.Statement, Value: st.Value})
		return next, nil

	case *ast.CallStmt:
		return b.buildCall(st, cur)

	case *ast.IfStmt:
		return b.buildIf(st, cur)

	case *ast.WhileStmt:
		return b.buildWhile(st, cur)

	case *ast.BreakStmt:
		if len(b.loops) == 0 {
			return -1, fmt.Errorf("cfabuild: break outside loop")
		}
		target := b.loops[len(b.loops)-1].breakTo
		b.g.AddEdge(cur, target, cfa.Instruction{Kind: cfa.Nop})
		return -1, nil

	case *ast.ContinueStmt:
		if len(b.loops) == 0 {
			return -1, fmt.Errorf("cfabuild: continue outside loop")
		}
		target := b.loops[len(b.loops)-1].continueTo
		b.g.AddEdge(cur, target, cfa.Instruction{Kind: cfa.Nop})
		return -1, nil

	case *ast.ReturnStmt:
		// Each RETURN edge leads to a fresh node with no leaving edges (no
		// NOP links it to the function's exit); the StackCPA transfer
		// relation (internal/cpa/stack) decides where control resumes in
		// the caller.
		join := b.g.AddNode("")
		b.g.AddEdge(cur, join, cfa.Instruction{Kind: cfa.Return, ReturnValue: st.Value})
		return -1, nil

	default:
		return -1, fmt.Errorf("cfabuild: unsupported statement %T", s)
	}
}

func (b *builder) buildCall(st *ast.CallStmt, cur cfa.NodeID) (cfa.NodeID, error) {
	switch builtinrx.Classify(st.Callee) {
	case builtinrx.ReachError:
		b.g.AddEdge(cur, b.errorNode, cfa.Instruction{Kind: cfa.ReachError})
		return -1, nil

	case builtinrx.Nondet:
		next := b.g.AddNode("")
		b.g.AddEdge(cur, next, cfa.Instruction{Kind: cfa.Nondet, AssignTo: st.Target})
		return next, nil

	default:
		callee, ok := b.funcs[st.Callee]
		if !ok {
			return -1, fmt.Errorf("cfabuild: call to undeclared function %q", st.Callee)
		}
		if len(st.Args) != len(callee.Params) {
			return -1, fmt.Errorf("cfabuild: %s expects %d arguments, got %d", st.Callee, len(callee.Params), len(st.Args))
		}
		join := b.g.AddNode("")
		b.g.AddEdge(cur, join, cfa.Instruction{
			Kind:     cfa.Call,
			Callee:   st.Callee,
			CalleeFn: b.g.Entries[st.Callee],
			Params:   callee.Params,
			Args:     st.Args,
			ReturnTo: st.Target,
		})
		return join, nil
	}
}

func (b *builder) buildIf(st *ast.IfStmt, cur cfa.NodeID) (cfa.NodeID, error) {
	thenStart := b.g.AddNode("")
	b.g.AddEdge(cur, thenStart, cfa.Instruction{Kind: cfa.Assumption, Cond: st.Cond, Negated: false})
	thenEnd, err := b.buildStmts(st.Then, thenStart)
	if err != nil {
		return -1, err
	}

	elseStart := b.g.AddNode("")
	b.g.AddEdge(cur, elseStart, cfa.Instruction{Kind: cfa.Assumption, Cond: st.Cond, Negated: true})
	elseEnd, err := b.buildStmts(st.Else, elseStart)
	if err != nil {
		return -1, err
	}

	if thenEnd < 0 && elseEnd < 0 {
		return -1, nil
	}
	join := b.g.AddNode("")
	if thenEnd >= 0 {
		b.g.AddEdge(thenEnd, join, cfa.Instruction{Kind: cfa.Nop})
	}
	if elseEnd >= 0 {
		b.g.AddEdge(elseEnd, join, cfa.Instruction{Kind: cfa.Nop})
	}
	return join, nil
}

func (b *builder) buildWhile(st *ast.WhileStmt, cur cfa.NodeID) (cfa.NodeID, error) {
	head := b.g.AddNode("")
	b.g.AddEdge(cur, head, cfa.Instruction{Kind: cfa.Nop})

	bodyStart := b.g.AddNode("")
	b.g.AddEdge(head, bodyStart, cfa.Instruction{Kind: cfa.Assumption, Cond: st.Cond, Negated: false})

	exit := b.g.AddNode("")
	b.g.AddEdge(head, exit, cfa.Instruction{Kind: cfa.Assumption, Cond: st.Cond, Negated: true})

	b.loops = append(b.loops, loopTargets{breakTo: exit, continueTo: head})
	bodyEnd, err := b.buildStmts(st.Body, bodyStart)
	b.loops = b.loops[:len(b.loops)-1]
	if err != nil {
		return -1, err
	}
	if bodyEnd >= 0 {
		b.g.AddEdge(bodyEnd, head, cfa.Instruction{Kind: cfa.Nop})
	}
	return exit, nil
}
