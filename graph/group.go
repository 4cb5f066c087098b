package graph

import (
	"context"
	"strings"
)

// driveGroup runs a group's members to completion, redriving them for
// Repeat/While groups (spec.md §4.6). ForEach groups are expanded into
// K physical member-set clones at canvas-load time (each carrying a
// "#<version>" id suffix), so by the time a group reaches here
// its Members always run exactly once per compiled clone; driveGroup
// treats ForEach identically to Basic.
func (rc *RunContext) driveGroup(ctx context.Context, g *Group) error {
	switch g.Subtype {
	case GroupRepeat:
		return rc.driveRepeat(ctx, g)
	case GroupWhile:
		return rc.driveWhile(ctx, g)
	default: // GroupBasic, GroupForEach
		return rc.driveOnce(ctx, g)
	}
}

// driveOnce launches every member once and waits for the whole member
// set to reach a terminal status.
func (rc *RunContext) driveOnce(ctx context.Context, g *Group) error {
	rc.launchReadyMembers(ctx, g)
	rc.awaitMembersTerminal(ctx, g)
	return nil
}

// driveRepeat runs the member set MaxLoops times, resetting every member
// and its outgoing edges that leave the group between iterations (see
// resetMembers).
func (rc *RunContext) driveRepeat(ctx context.Context, g *Group) error {
	for g.CurrentLoop = 0; g.CurrentLoop < g.MaxLoops; g.CurrentLoop++ {
		loopCtx := WithLoopStack(ctx, append([]int{g.CurrentLoop}, LoopStack(ctx)...))
		rc.launchReadyMembers(loopCtx, g)
		rc.awaitMembersTerminal(loopCtx, g)
		if rc.anyMemberRejectedOrErrored(g) {
			return nil
		}
		if g.CurrentLoop < g.MaxLoops-1 {
			rc.resetMembers(g)
		}
	}
	return nil
}

// driveWhile redrives the member set until its condition edge (see
// whileCondition) evaluates false, or MaxLoops is reached as a safety
// cap when MaxLoops > 0.
func (rc *RunContext) driveWhile(ctx context.Context, g *Group) error {
	for g.CurrentLoop = 0; g.MaxLoops <= 0 || g.CurrentLoop < g.MaxLoops; g.CurrentLoop++ {
		loopCtx := WithLoopStack(ctx, append([]int{g.CurrentLoop}, LoopStack(ctx)...))
		rc.launchReadyMembers(loopCtx, g)
		rc.awaitMembersTerminal(loopCtx, g)
		if rc.anyMemberRejectedOrErrored(g) {
			return nil
		}
		if !rc.whileCondition(g) {
			break
		}
		rc.resetMembers(g)
	}
	return nil
}

// whileCondition reports whether a While group should run another
// iteration. The condition is carried by the group's sole reflexive
// incoming edge of subtype EdgeField named "condition": its loaded
// string content, compared case-insensitively against "true"/"yes"/"1",
// gates continuation. A While group with no such edge runs exactly once
// (equivalent to Basic), since there is nothing to re-evaluate.
func (rc *RunContext) whileCondition(g *Group) bool {
	for _, eid := range g.Incoming {
		e := rc.coll.Edges[eid]
		if e == nil || !e.Reflexive || e.Subtype != EdgeField || e.Name() != "condition" {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(e.ContentString()))
		return v == "true" || v == "yes" || v == "1"
	}
	return false
}

// launchReadyMembers launches every direct member whose dependencies are
// already satisfied (typically all of them, on the first call of an
// iteration, since Reset cleared their gating edges).
func (rc *RunContext) launchReadyMembers(ctx context.Context, g *Group) {
	for _, mid := range g.Members {
		if rc.statusOf(mid) != StatusPending {
			continue
		}
		res, err := rc.evaluate(rc.depsOf(mid))
		switch {
		case err != nil:
			rc.markError(mid, err)
		case res == evalSatisfied:
			rc.launch(ctx, mid)
		case res == evalIrrecoverable:
			rc.markRejected(mid)
		}
	}
}

// awaitMembersTerminal blocks until every direct member of g has reached
// a terminal status, or ctx is cancelled.
func (rc *RunContext) awaitMembersTerminal(ctx context.Context, g *Group) {
	done := make(chan struct{})
	go func() {
		rc.condMu.Lock()
		for !rc.membersTerminal(g) {
			rc.cond.Wait()
		}
		rc.condMu.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (rc *RunContext) membersTerminal(g *Group) bool {
	for _, mid := range g.Members {
		if !rc.statusOf(mid).Terminal() {
			return false
		}
	}
	return true
}

func (rc *RunContext) anyMemberRejectedOrErrored(g *Group) bool {
	for _, mid := range g.Members {
		switch rc.statusOf(mid) {
		case StatusRejected, StatusError:
			return true
		}
	}
	return false
}

// resetMembers returns every member node to Pending, resets its
// behavior's internal state, and clears every member's outgoing edge
// whose target lies outside the group so the next iteration can
// redrive from scratch (spec.md §4.6). Edges wholly internal to the
// group persist their previous iteration's payload rather than being
// cleared here.
func (rc *RunContext) resetMembers(g *Group) {
	members := map[ID]bool{}
	for _, mid := range g.Members {
		members[mid] = true
	}
	for _, mid := range g.Members {
		if n, ok := rc.coll.Nodes[mid]; ok {
			if n.Behavior != nil {
				n.Behavior.Reset()
			}
			if ev, ok := n.resetToPending(); ok {
				rc.emit(ev)
			}
		}
		if sub, ok := rc.coll.Groups[mid]; ok {
			if ev, ok := sub.resetToPending(); ok {
				rc.emit(ev)
			}
		}
	}
	for _, e := range rc.coll.Edges {
		if members[e.Source] && !members[e.Target] {
			e.Reset()
		}
	}
}
