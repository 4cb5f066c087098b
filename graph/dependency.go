package graph

// evalResult is the outcome of checking one object's dependency list
// against the current run state (spec.md §4.3).
type evalResult int

const (
	evalPending evalResult = iota
	evalSatisfied
	evalIrrecoverable
)

// evaluate inspects deps against rc's object table and returns whether
// they are fully satisfied, irrecoverable, or still pending. A non-nil
// error means a cluster had more than one member reach Complete
// simultaneously — a configuration bug (spec.md §4.3) rather than an
// ordinary outcome, surfaced to the caller as ErrDuplicateVariable.
func (rc *RunContext) evaluate(deps []Dependency) (evalResult, error) {
	if len(deps) == 0 {
		return evalSatisfied, nil
	}

	allSatisfied := true
	for _, d := range deps {
		if d.isCluster() {
			completed := 0
			allDecided := true
			for _, branch := range d.Cluster {
				switch rc.statusOf(branch.Source) {
				case StatusComplete:
					if e := rc.coll.Edges[branch.Edge]; e == nil || e.Loaded() {
						completed++
					}
				case StatusRejected, StatusError:
					// decided against this branch
				default:
					allDecided = false
				}
			}
			if completed > 1 {
				return evalIrrecoverable, ErrDuplicateVariable
			}
			if completed == 1 {
				continue
			}
			if allDecided {
				return evalIrrecoverable, nil
			}
			allSatisfied = false
			continue
		}

		switch rc.statusOf(d.Single) {
		case StatusComplete:
			if e := rc.coll.Edges[d.Edge]; e != nil && !e.Loaded() {
				// the source finished without loading the one edge this
				// dependency actually needs (e.g. an unselected Choice
				// branch) — the dependent can never become satisfied.
				return evalIrrecoverable, nil
			}
		case StatusRejected, StatusError:
			return evalIrrecoverable, nil
		default:
			allSatisfied = false
		}
	}

	if allSatisfied {
		return evalSatisfied, nil
	}
	return evalPending, nil
}

// buildVertexDependencies computes a vertex's dependency list: one entry
// per distinct incoming-edge name among its own non-reflexive incoming
// edges plus those of every enclosing group (spec.md §4.3). Edges that
// share a name (e.g. two Variable edges named "topic" arriving from
// mutually exclusive Choice branches) collapse into a single disjunctive
// Dependency cluster, since only one branch will ever actually fire;
// unnamed edges and edges with a unique name each become a singleton.
func buildVertexDependencies(incoming []ID, enclosing []ID, edges map[ID]*Edge, groups map[ID]*Group) []Dependency {
	named := map[string][]DependencyBranch{}
	var order []string
	var singles []DependencyBranch

	add := func(eid ID) {
		e := edges[eid]
		if e == nil || e.Reflexive {
			return
		}
		branch := DependencyBranch{Source: e.Source, Edge: eid}
		if e.Subtype.HasName() && e.Name() != "" {
			key := e.Name()
			if _, seen := named[key]; !seen {
				order = append(order, key)
			}
			named[key] = append(named[key], branch)
			return
		}
		singles = append(singles, branch)
	}

	for _, eid := range incoming {
		add(eid)
	}
	for _, gid := range enclosing {
		g := groups[gid]
		if g == nil {
			continue
		}
		for _, eid := range g.Incoming {
			add(eid)
		}
	}

	var deps []Dependency
	for _, s := range singles {
		deps = append(deps, Dependency{Single: s.Source, Edge: s.Edge})
	}
	for _, key := range order {
		branches := named[key]
		if len(branches) == 1 {
			deps = append(deps, Dependency{Single: branches[0].Source, Edge: branches[0].Edge})
			continue
		}
		deps = append(deps, Dependency{Cluster: branches})
	}
	return deps
}
