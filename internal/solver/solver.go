// Package solver is the sat/seq_interp abstraction spec.md §9 asks for:
// "Abstract these behind a small interface with two methods: sat(phi) and
// seq_interp([A0..An]) returning either Some(list) or None." No SMT solver
// exists anywhere in the example pack, so this implementation decides both
// queries over a bounded integer domain using
// github.com/gitrdm/gokanlogic's finite-domain CSP engine (pkg/minikanren's
// FDStore/FDVar/CustomConstraint), per SPEC_FULL.md §2.3. Boolean structure
// (&&, ||, !) is handled by converting to DNF and generate-and-test search
// per disjunct; each disjunct's leaf comparisons are checked by a
// CustomConstraint (the same extension point gokanlogic's own
// SumConstraint/AllDifferentConstraint in fd_custom.go use) that rejects an
// assignment once every variable it mentions is bound. Sequence
// interpolation is computed by exact projection-by-enumeration rather than
// general Craig interpolation: since the domain is finite, the precise set
// of prefix-reachable values for the variables shared with the suffix can be
// enumerated outright (bounded by Config.EnumLimit), which is sound by
// construction when enumeration completes — see SPEC_FULL.md §2.3 for why
// this replaces a genuine interpolating prover.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	"reachcheck/internal/formula"
)

// ErrUnsupported is returned by Sat when the query could not be decided
// within the configured resource bounds — spec.md §7's "Solver" error kind
// ("SAT/interpolator returns UNKNOWN ... unsupported theory").
var ErrUnsupported = errors.New("solver: query exceeds the configured bound or timeout")

// Config configures the bounded-domain decision procedure.
type Config struct {
	// Bound is the half-width of the symmetric integer domain [-Bound, Bound-1]
	// every SSA variable is restricted to (SPEC_FULL.md §2.3's default [-512, 511]).
	Bound int
	// EnumLimit caps how many solutions SeqInterp will enumerate while
	// projecting a prefix formula onto its interface variables before
	// giving up and reporting "not supported".
	EnumLimit int
	// Timeout bounds a single Solve call, the Go equivalent of "pass an
	// SMT-level timeout if available" (spec.md §9).
	Timeout time.Duration
}

// DefaultConfig matches SPEC_FULL.md §2.3's resolved Open Question.
func DefaultConfig() Config {
	return Config{Bound: 512, EnumLimit: 256, Timeout: 2 * time.Second}
}

// Solver is the shared decision-procedure environment of spec.md §5: one
// value per CEGAR run, reused across every implication check in a fixpoint
// iteration and every feasibility/interpolation query in a refinement step.
// It holds no mutable solver state itself — each query builds its own
// scratch FDStore — so it is safe to keep across calls without locking.
type Solver struct {
	cfg Config
}

// New returns a Solver with cfg, or DefaultConfig if cfg is the zero value.
func New(cfg Config) *Solver {
	if cfg.Bound == 0 {
		cfg = DefaultConfig()
	}
	return &Solver{cfg: cfg}
}

func (s *Solver) domainSize() int { return 2 * s.cfg.Bound }
func (s *Solver) bias() int64     { return int64(s.cfg.Bound) }

// Sat decides satisfiability of phi over the bounded integer domain. Per
// spec.md §4.5 step 3: "On solver UNKNOWN treat as SAT (do not add)" — an
// ErrUnsupported here should be read by the caller the same way.
func (s *Solver) Sat(phi formula.Term) (bool, error) {
	clauses := toDNF(toNNF(phi))
	for _, clause := range clauses {
		sat, err := s.satClause(clause)
		if err != nil {
			return false, err
		}
		if sat {
			return true, nil
		}
	}
	return false, nil
}

// satClause decides one conjunction-of-literals disjunct.
func (s *Solver) satClause(clause formula.Term) (bool, error) {
	refs := clause.VarRefs()
	if len(refs) == 0 {
		v, ok := evalBool(clause, nil)
		return ok && v, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	store := minikanren.NewFDStoreWithDomain(s.domainSize())
	vars := make([]*minikanren.FDVar, len(refs))
	keys := make([]string, len(refs))
	for i, ref := range refs {
		vars[i] = store.NewVar()
		keys[i] = ref.Key()
	}

	constraint := &exprConstraint{vars: vars, keys: keys, bias: s.bias(), literals: conjuncts(clause)}
	if err := store.AddCustomConstraint(constraint); err != nil {
		if errors.Is(err, minikanren.ErrInconsistent) || errors.Is(err, minikanren.ErrDomainEmpty) {
			return false, nil
		}
		return false, err
	}

	solutions, err := store.Solve(ctx, 1)
	if err != nil {
		return false, ErrUnsupported
	}
	return len(solutions) > 0, nil
}

// exprConstraint is a gokanlogic CustomConstraint (fd_custom.go's extension
// point) that rejects a full assignment of vars that does not satisfy every
// literal in literals. It performs no partial propagation — only a
// generate-and-test check once every variable it mentions is bound — which
// is sufficient because gokanlogic's Assign calls propagateLocked ->
// propagateCustomConstraintsLocked after every labeling decision (fd.go,
// fd_custom.go), so a rejected assignment triggers backtracking exactly as
// it would for a built-in constraint.
type exprConstraint struct {
	vars     []*minikanren.FDVar
	keys     []string
	bias     int64
	literals []formula.Term
}

func (c *exprConstraint) Variables() []*minikanren.FDVar { return c.vars }

func (c *exprConstraint) Propagate(*minikanren.FDStore) (bool, error) {
	env, complete := c.env()
	if !complete {
		return false, nil
	}
	for _, lit := range c.literals {
		v, ok := evalBool(lit, env)
		if !ok || !v {
			return false, minikanren.ErrInconsistent
		}
	}
	return false, nil
}

func (c *exprConstraint) IsSatisfied() bool {
	env, complete := c.env()
	if !complete {
		return false
	}
	for _, lit := range c.literals {
		v, ok := evalBool(lit, env)
		if !ok || !v {
			return false
		}
	}
	return true
}

// env decodes the constraint's FD variables into the real-valued
// environment evalBool/evalInt expect, or (nil, false) if any variable is
// not yet singleton-bound.
func (c *exprConstraint) env() (map[string]int64, bool) {
	env := make(map[string]int64, len(c.vars))
	for i, v := range c.vars {
		if !v.IsSingleton() {
			return nil, false
		}
		env[c.keys[i]] = int64(v.SingletonValue()) - c.bias
	}
	return env, true
}

// conjuncts flattens a Term built from nested "&&" Binary nodes into its
// top-level literal list; non-&&/non-"!"-of-&& nodes are single-element.
func conjuncts(t formula.Term) []formula.Term {
	if t.Kind == formula.KindBinary && t.Op == "&&" {
		return append(conjuncts(t.X), conjuncts(t.Y)...)
	}
	return []formula.Term{t}
}
