package flow

import (
	"sort"
	"strings"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/internal/store"
	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func stepHash(s *model.Step) string {
	return s.Info.Name
}

// Flow is the static definition of a workflow: a directed acyclic graph of
// steps that can fan out into parallel branches and later join. A flow is
// built once with the Add functions and becomes read-only as soon as a run
// starts.
type Flow struct {
	name string

	mu     sync.Mutex
	sealed bool

	store *store.FlowStore
	graph graph.Graph[string, *model.Step]

	steps map[string]*model.Step
	// successors and predecessors keep the declaration order, which the
	// adjacency maps of the graph cannot.
	successors   map[string][]string
	predecessors map[string][]string

	root string

	bodies     map[string]StepFn
	joinBodies map[string]JoinFn

	opts []model.FlowOption
}

// New creates a new flow.
func New(name string, opts ...model.FlowOption) (*Flow, error) {
	st := store.New()

	fl := &Flow{
		name:         name,
		store:        st,
		graph:        graph.NewWithStore(stepHash, graph.Store[string, *model.Step](st), graph.Directed(), graph.PreventCycles()),
		steps:        make(map[string]*model.Step),
		successors:   make(map[string][]string),
		predecessors: make(map[string][]string),
		bodies:       make(map[string]StepFn),
		joinBodies:   make(map[string]JoinFn),
		opts:         opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply flow option")
		}
	}

	return fl, nil
}

// Name returns the flow name.
func (fl *Flow) Name() string {
	return fl.name
}

// Successors returns the successor step names, in declaration order.
func (fl *Flow) Successors(name string) []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	out := make([]string, len(fl.successors[name]))
	copy(out, fl.successors[name])

	return out
}

// Predecessors returns the predecessor step names, in declaration order.
func (fl *Flow) Predecessors(name string) []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	out := make([]string, len(fl.predecessors[name]))
	copy(out, fl.predecessors[name])

	return out
}

// Step returns the step with the given name, or nil.
func (fl *Flow) Step(name string) *model.Step {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	return fl.steps[name]
}

func (fl *Flow) seal() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.sealed = true
}

func (fl *Flow) addStep(step *model.Step, body StepFn, joinBody JoinFn) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.sealed {
		return ErrFlowSealed
	}

	name := step.Info.Name
	if _, ok := fl.steps[name]; ok {
		return newGraphError(name, "step already exists")
	}

	err := fl.graph.AddVertex(step)
	if err != nil {
		return errors.Wrapf(err, "unable to add step %q", name)
	}

	fl.steps[name] = step
	if body != nil {
		fl.bodies[name] = body
	}
	if joinBody != nil {
		fl.joinBodies[name] = joinBody
	}

	return nil
}

func (fl *Flow) addLink(parent, child string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.sealed {
		return ErrFlowSealed
	}

	err := fl.graph.AddEdge(parent, child)
	if errors.Is(err, graph.ErrEdgeCreatesCycle) {
		return newGraphError(child, "link from "+parent+" creates a cycle")
	}
	if err != nil {
		return errors.Wrapf(err, "unable to link %q to %q", parent, child)
	}

	fl.successors[parent] = append(fl.successors[parent], child)
	fl.predecessors[child] = append(fl.predecessors[child], parent)

	return nil
}

// Validate checks the structure of the flow graph: every linear step has
// exactly one successor (except the single terminal step), every fanout has
// at least two branches, every join collects exactly the branch set of its
// originating fanout, every step is reachable from the root and the graph is
// acyclic. It returns a GraphError describing the first violation found.
func (fl *Flow) Validate() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.root == "" {
		return newGraphError("", "no root step")
	}

	if err := fl.checkCycles(); err != nil {
		return err
	}

	var terminals []string

	for name, step := range fl.steps {
		succ := fl.successors[name]

		switch step.Info.Kind {
		case model.LinearStepKind:
			if len(succ) == 0 {
				terminals = append(terminals, name)
			} else if len(succ) != 1 {
				return newGraphError(name, "linear step must have exactly one successor")
			}
		case model.FanoutStepKind:
			if len(succ) < 2 {
				return newGraphError(name, "fanout step must have at least two branches")
			}
		case model.JoinStepKind:
			if len(fl.predecessors[name]) < 2 {
				return newGraphError(name, "join step must have at least two predecessors")
			}
			if len(succ) == 0 {
				terminals = append(terminals, name)
			} else if len(succ) != 1 {
				return newGraphError(name, "join step must have exactly one successor")
			}
		}
	}

	if len(terminals) == 0 {
		return newGraphError("", "no terminal step")
	}
	if len(terminals) > 1 {
		sort.Strings(terminals)

		return newGraphError(terminals[0], "multiple terminal steps ("+strings.Join(terminals, ", ")+")")
	}

	if err := fl.checkReachable(); err != nil {
		return err
	}

	return fl.checkFanoutConvergence()
}

func (fl *Flow) checkCycles() error {
	// Edges are rejected at AddEdge time with PreventCycles, so a cycle can
	// only appear through a store bug. The walk stays as a safety net.
	state := make(map[string]int, len(fl.steps))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case 1:
			return newGraphError(name, "cycle detected")
		case 2:
			return nil
		}
		state[name] = 1
		for _, next := range fl.successors[name] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[name] = 2

		return nil
	}

	for name := range fl.steps {
		if err := visit(name); err != nil {
			return err
		}
	}

	return nil
}

func (fl *Flow) checkReachable() error {
	seen := make(map[string]struct{}, len(fl.steps))
	stack := []string{fl.root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}

		stack = append(stack, fl.successors[current]...)
	}

	for name := range fl.steps {
		if _, ok := seen[name]; !ok {
			return newGraphError(name, "step is not reachable from the root")
		}
	}

	return nil
}

// checkFanoutConvergence verifies that all branches of every fanout converge
// at exactly one join, and that the predecessor set of that join is exactly
// the set of branch endings of the fanout. Partial joins are rejected.
func (fl *Flow) checkFanoutConvergence() error {
	for name, step := range fl.steps {
		if step.Info.Kind != model.FanoutStepKind {
			continue
		}

		join := ""
		endings := make(map[string]struct{})

		for _, branch := range fl.successors[name] {
			ending, branchJoin, err := fl.walkBranch(branch)
			if err != nil {
				return err
			}
			if join == "" {
				join = branchJoin
			} else if join != branchJoin {
				return newGraphError(name, "branches converge at different joins ("+join+" and "+branchJoin+")")
			}
			endings[ending] = struct{}{}
		}

		preds := fl.predecessors[join]
		if len(preds) != len(endings) {
			return newGraphError(join, "join predecessors do not match the branches of fanout "+name)
		}
		for _, pred := range preds {
			if _, ok := endings[pred]; !ok {
				return newGraphError(join, "predecessor "+pred+" does not come from fanout "+name)
			}
		}
	}

	return nil
}

// walkBranch follows a branch from its head to the join it converges at.
// It returns the last step of the branch and the join. Nested fanouts are
// skipped over through their own join.
func (fl *Flow) walkBranch(head string) (ending, join string, err error) {
	current := head

	if step, ok := fl.steps[head]; ok && step.Info.Kind == model.JoinStepKind {
		return "", "", newGraphError(head, "fanout branch cannot start at a join")
	}

	for {
		step, ok := fl.steps[current]
		if !ok {
			return "", "", newGraphError(current, "unknown step")
		}

		if step.Info.Kind == model.FanoutStepKind {
			// Jump to the join of the nested fanout.
			_, nestedJoin, nestedErr := fl.walkBranch(fl.successors[current][0])
			if nestedErr != nil {
				return "", "", nestedErr
			}
			current = nestedJoin
		}

		succ := fl.successors[current]
		if len(succ) == 0 {
			return "", "", newGraphError(current, "branch does not converge at a join")
		}

		next := succ[0]
		if fl.steps[next] != nil && fl.steps[next].Info.Kind == model.JoinStepKind {
			return current, next, nil
		}

		current = next
	}
}
