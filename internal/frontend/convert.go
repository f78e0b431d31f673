package frontend

import (
	"reachcheck/internal/ast"
)

func pos(p astPos) ast.Position {
	return ast.Position{
		Filename: p.Pos.Filename,
		Offset:   p.Pos.Offset,
		Line:     p.Pos.Line,
		Column:   p.Pos.Column,
	}
}

func toProgram(g *Program) *ast.Program {
	out := &ast.Program{Pos: pos(g.astPos)}
	for _, fn := range g.Functions {
		out.Functions = append(out.Functions, toFunction(fn))
	}
	return out
}

func toFunction(g *Function) *ast.Function {
	out := &ast.Function{
		Pos:    pos(g.astPos),
		Name:   g.Name,
		Params: g.Params,
	}
	out.Body = toStmts(g.Body)
	return out
}

func toStmts(gs []*Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(gs))
	for _, s := range gs {
		out = append(out, toStmt(s))
	}
	return out
}

func toStmt(g *Stmt) ast.Stmt {
	switch {
	case g.If != nil:
		return &ast.IfStmt{
			Pos:  pos(g.If.astPos),
			Cond: toExpr(&g.If.Cond),
			Then: toStmts(g.If.Then),
			Else: toStmts(g.If.Else),
		}
	case g.While != nil:
		return &ast.WhileStmt{
			Pos:  pos(g.While.astPos),
			Cond: toExpr(&g.While.Cond),
			Body: toStmts(g.While.Body),
		}
	case g.Break != nil:
		return &ast.BreakStmt{Pos: pos(g.Break.astPos)}
	case g.Continue != nil:
		return &ast.ContinueStmt{Pos: pos(g.Continue.astPos)}
	case g.Return != nil:
		var v ast.Expr
		if g.Return.Value != nil {
			v = toExpr(g.Return.Value)
		}
		return &ast.ReturnStmt{Pos: pos(g.Return.astPos), Value: v}
	case g.Call != nil:
		args := make([]ast.Expr, len(g.Call.Args))
		for i, a := range g.Call.Args {
			args[i] = toExpr(a)
		}
		return &ast.CallStmt{
			Pos:    pos(g.Call.astPos),
			Target: g.Call.Target,
			Callee: g.Call.Callee,
			Args:   args,
		}
	case g.Assign != nil:
		return &ast.AssignStmt{
			Pos:    pos(g.Assign.astPos),
			Target: g.Assign.Target,
			Value:  toExpr(&g.Assign.Value),
		}
	case g.Expr != nil:
		return &ast.ExprStmt{
			Pos:   pos(g.Expr.astPos),
			Value: toExpr(&g.Expr.Value),
		}
	}
	panic("frontend: empty Stmt alternative")
}

func toExpr(g *Expr) ast.Expr {
	left := toAndExpr(g.Left)
	for _, op := range g.Ops {
		left = &ast.BinaryExpr{Pos: pos(g.astPos), Op: op.Op, Left: left, Right: toAndExpr(op.Right)}
	}
	return left
}

func toAndExpr(g *AndExpr) ast.Expr {
	left := toCmpExpr(g.Left)
	for _, op := range g.Ops {
		left = &ast.BinaryExpr{Pos: pos(g.astPos), Op: op.Op, Left: left, Right: toCmpExpr(op.Right)}
	}
	return left
}

func toCmpExpr(g *CmpExpr) ast.Expr {
	left := toAddExpr(g.Left)
	for _, op := range g.Ops {
		left = &ast.BinaryExpr{Pos: pos(g.astPos), Op: op.Op, Left: left, Right: toAddExpr(op.Right)}
	}
	return left
}

func toAddExpr(g *AddExpr) ast.Expr {
	left := toMulExpr(g.Left)
	for _, op := range g.Ops {
		left = &ast.BinaryExpr{Pos: pos(g.astPos), Op: op.Op, Left: left, Right: toMulExpr(op.Right)}
	}
	return left
}

func toMulExpr(g *MulExpr) ast.Expr {
	left := toPowExpr(g.Left)
	for _, op := range g.Ops {
		left = &ast.BinaryExpr{Pos: pos(g.astPos), Op: op.Op, Left: left, Right: toPowExpr(op.Right)}
	}
	return left
}

func toPowExpr(g *PowExpr) ast.Expr {
	left := toUnaryExpr(g.Left)
	if g.Right != nil {
		return &ast.BinaryExpr{Pos: pos(g.astPos), Op: "**", Left: left, Right: toPowExpr(g.Right)}
	}
	return left
}

func toUnaryExpr(g *UnaryExpr) ast.Expr {
	inner := toPrimary(g.Value)
	if g.Op != nil {
		return &ast.UnaryExpr{Pos: pos(g.astPos), Op: *g.Op, Expr: inner}
	}
	return inner
}

func toPrimary(g *Primary) ast.Expr {
	p := pos(g.astPos)
	switch {
	case g.Call != nil:
		args := make([]ast.Expr, len(g.Call.Args))
		for i, a := range g.Call.Args {
			args[i] = toExpr(a)
		}
		return &ast.CallExpr{Pos: p, Callee: g.Call.Callee, Args: args}
	case g.Number != nil:
		return &ast.IntLit{Pos: p, Value: parseInt(*g.Number)}
	case g.Bool != nil:
		return &ast.BoolLit{Pos: p, Value: *g.Bool == "true"}
	case g.Ident != nil:
		return &ast.Ident{Pos: p, Name: *g.Ident}
	case g.Paren != nil:
		return toExpr(g.Paren)
	}
	panic("frontend: empty Primary alternative")
}

func parseInt(s string) int64 {
	var v int64
	for _, c := range s {
		v = v*10 + int64(c-'0')
	}
	return v
}
