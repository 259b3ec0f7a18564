package graph

import (
	"errors"
	"testing"

	kindred "github.com/kindredapp/kindred-go"
)

func makePeople(names ...string) kindred.People {
	people := make(kindred.People, len(names))
	for _, name := range names {
		id := kindred.ConfirmedID(name)
		people[id] = kindred.Person{ID: id, Name: name}
	}
	return people
}

func id(v string) kindred.PersonID { return kindred.ConfirmedID(v) }

func mustApply(t *testing.T, people kindred.People, edgeType kindred.EdgeType, one, two string) kindred.People {
	t.Helper()
	next, err := ApplyEdge(people, kindred.Edge{Type: edgeType, PersonOneID: id(one), PersonTwoID: id(two)})
	if err != nil {
		t.Fatalf("ApplyEdge(%s, %s, %s) failed: %v", edgeType, one, two, err)
	}
	return next
}

// checkSymmetry verifies the adjacency symmetry invariant over the whole
// collection.
func checkSymmetry(t *testing.T, people kindred.People) {
	t.Helper()
	for _, p := range people {
		for _, c := range p.ChildIDs {
			if !kindred.ContainsID(people[c].ParentIDs, p.ID) {
				t.Fatalf("%s has child %s but %s lacks parent %s", p.ID, c, c, p.ID)
			}
		}
		for _, pa := range p.ParentIDs {
			if !kindred.ContainsID(people[pa].ChildIDs, p.ID) {
				t.Fatalf("%s has parent %s but %s lacks child %s", p.ID, pa, pa, p.ID)
			}
		}
		for _, s := range p.SpouseIDs {
			if !kindred.ContainsID(people[s].SpouseIDs, p.ID) {
				t.Fatalf("spouse edge %s-%s is one-sided", p.ID, s)
			}
		}
		for _, s := range p.SiblingIDs {
			if !kindred.ContainsID(people[s].SiblingIDs, p.ID) {
				t.Fatalf("sibling edge %s-%s is one-sided", p.ID, s)
			}
		}
	}
}

func TestApplyEdgeParentChild(t *testing.T) {
	people := makePeople("a", "b")

	next := mustApply(t, people, kindred.EdgeParent, "a", "b")

	if !kindred.ContainsID(next[id("a")].ChildIDs, id("b")) {
		t.Fatalf("expected b in a's children")
	}
	if !kindred.ContainsID(next[id("b")].ParentIDs, id("a")) {
		t.Fatalf("expected a in b's parents")
	}
	checkSymmetry(t, next)

	if len(people[id("a")].ChildIDs) != 0 {
		t.Fatalf("input collection was mutated")
	}
}

func TestApplyEdgeChildTagSameDirection(t *testing.T) {
	// Both tags mean "person one is the parent".
	viaParent := mustApply(t, makePeople("a", "b"), kindred.EdgeParent, "a", "b")
	viaChild := mustApply(t, makePeople("a", "b"), kindred.EdgeChild, "a", "b")

	if !kindred.ContainsID(viaChild[id("a")].ChildIDs, id("b")) {
		t.Fatalf("child tag should still make a the parent")
	}
	if len(viaParent[id("a")].ChildIDs) != len(viaChild[id("a")].ChildIDs) {
		t.Fatalf("parent and child tags diverged")
	}
}

func TestApplyEdgeVersionBump(t *testing.T) {
	people := makePeople("a", "b")

	next := mustApply(t, people, kindred.EdgeSpouse, "a", "b")

	for _, pid := range []kindred.PersonID{id("a"), id("b")} {
		if next[pid].Version != people[pid].Version+1 {
			t.Fatalf("expected version bump for %s", pid)
		}
		if !next[pid].UpdatedAt.After(people[pid].UpdatedAt) {
			t.Fatalf("expected updatedAt refresh for %s", pid)
		}
	}
}

func TestApplyEdgeIdempotent(t *testing.T) {
	people := makePeople("a", "b")

	for _, typ := range []kindred.EdgeType{kindred.EdgeParent, kindred.EdgeSpouse, kindred.EdgeSibling} {
		once := mustApply(t, people, typ, "a", "b")
		twice := mustApply(t, once, typ, "a", "b")

		for pid, p := range twice {
			if p.Version != once[pid].Version {
				t.Fatalf("%s edge reapplication bumped version of %s", typ, pid)
			}
		}
	}
}

func TestApplyEdgeSelfRejected(t *testing.T) {
	people := makePeople("a")

	next, err := ApplyEdge(people, kindred.Edge{Type: kindred.EdgeSpouse, PersonOneID: id("a"), PersonTwoID: id("a")})
	if err == nil {
		t.Fatalf("expected self-edge rejection")
	}
	if !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("expected InvalidEdgeError, got %v", err)
	}
	if len(next[id("a")].SpouseIDs) != 0 {
		t.Fatalf("collection changed on rejected edge")
	}
}

func TestApplyEdgeMissingEndpointNoop(t *testing.T) {
	people := makePeople("a")

	next, err := ApplyEdge(people, kindred.Edge{Type: kindred.EdgeSibling, PersonOneID: id("a"), PersonTwoID: id("ghost")})
	if err != nil {
		t.Fatalf("missing endpoint should not error: %v", err)
	}
	if len(next) != len(people) || len(next[id("a")].SiblingIDs) != 0 {
		t.Fatalf("missing endpoint should leave collection untouched")
	}
}

func TestSiblingTransitiveClosure(t *testing.T) {
	people := makePeople("a", "b", "c")

	people = mustApply(t, people, kindred.EdgeSibling, "a", "b")
	people = mustApply(t, people, kindred.EdgeSibling, "b", "c")

	checkSymmetry(t, people)

	for _, pair := range [][2]string{{"a", "c"}, {"c", "a"}, {"a", "b"}, {"b", "c"}} {
		if !kindred.ContainsID(people[id(pair[0])].SiblingIDs, id(pair[1])) {
			t.Fatalf("expected %s in %s's siblings after closure", pair[1], pair[0])
		}
	}
}

func TestSiblingViaSharedParent(t *testing.T) {
	people := makePeople("mom", "a", "b", "c")

	people = mustApply(t, people, kindred.EdgeParent, "mom", "a")
	people = mustApply(t, people, kindred.EdgeParent, "mom", "b")
	people = mustApply(t, people, kindred.EdgeSibling, "a", "c")

	// b shares a parent with a, so linking a-c pulls b into the group.
	if !kindred.ContainsID(people[id("c")].SiblingIDs, id("b")) {
		t.Fatalf("shared-parent sibling b missing from c's group")
	}
	checkSymmetry(t, people)
}

func TestSiblingParentPropagation(t *testing.T) {
	people := makePeople("mom", "a", "b")

	people = mustApply(t, people, kindred.EdgeParent, "mom", "a")
	people = mustApply(t, people, kindred.EdgeSibling, "a", "b")

	if !kindred.ContainsID(people[id("b")].ParentIDs, id("mom")) {
		t.Fatalf("expected mom propagated to b's parents")
	}
	if !kindred.ContainsID(people[id("mom")].ChildIDs, id("b")) {
		t.Fatalf("expected b propagated to mom's children")
	}
	checkSymmetry(t, people)
}

func TestSiblingBetweenParentAndChildNoSelfReference(t *testing.T) {
	// A sibling edge between a person and their own child is implausible but
	// accepted; propagation must not write a self parent/child reference.
	people := makePeople("a", "b")

	people = mustApply(t, people, kindred.EdgeParent, "a", "b")
	people = mustApply(t, people, kindred.EdgeSibling, "a", "b")

	for _, pid := range []kindred.PersonID{id("a"), id("b")} {
		p := people[pid]
		if kindred.ContainsID(p.ParentIDs, pid) {
			t.Fatalf("%s lists themselves as a parent", pid)
		}
		if kindred.ContainsID(p.ChildIDs, pid) {
			t.Fatalf("%s lists themselves as a child", pid)
		}
		if kindred.ContainsID(p.SiblingIDs, pid) || kindred.ContainsID(p.SpouseIDs, pid) {
			t.Fatalf("%s references themselves", pid)
		}
	}

	// The pre-existing parent link survives.
	if !kindred.ContainsID(people[id("a")].ChildIDs, id("b")) {
		t.Fatalf("parent link a-b was dropped")
	}
	checkSymmetry(t, people)
}

func TestSpouseNotConflatedWithSibling(t *testing.T) {
	people := makePeople("a", "b", "c")

	people = mustApply(t, people, kindred.EdgeSpouse, "a", "b")
	people = mustApply(t, people, kindred.EdgeSibling, "b", "c")
	people = mustApply(t, people, kindred.EdgeSibling, "a", "c")

	// a, b and c merge into one sibling group through direct edges.
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "a"}, {"b", "c"}, {"c", "a"}, {"c", "b"}} {
		if !kindred.ContainsID(people[id(pair[0])].SiblingIDs, id(pair[1])) {
			t.Fatalf("expected %s in %s's siblings", pair[1], pair[0])
		}
	}

	// The spouse edge stays a spouse edge.
	if !kindred.ContainsID(people[id("a")].SpouseIDs, id("b")) {
		t.Fatalf("spouse edge lost")
	}
	if kindred.ContainsID(people[id("a")].SpouseIDs, id("c")) {
		t.Fatalf("spouse edge leaked to c")
	}
	checkSymmetry(t, people)
}

func TestSiblingGroupKeepsHalfSiblings(t *testing.T) {
	// x is a's half-sibling through a direct edge; linking a-b later must
	// not drop x from the group.
	people := makePeople("a", "b", "x")

	people = mustApply(t, people, kindred.EdgeSibling, "a", "x")
	people = mustApply(t, people, kindred.EdgeSibling, "a", "b")

	if !kindred.ContainsID(people[id("a")].SiblingIDs, id("x")) {
		t.Fatalf("pre-existing sibling x was dropped")
	}
	if !kindred.ContainsID(people[id("b")].SiblingIDs, id("x")) {
		t.Fatalf("x missing from the merged group")
	}
	checkSymmetry(t, people)
}

func TestApplyEdgeStructuralSharing(t *testing.T) {
	people := makePeople("a", "b", "c")

	next := mustApply(t, people, kindred.EdgeSpouse, "a", "b")

	// Untouched persons keep their adjacency unchanged.
	if len(next[id("c")].SpouseIDs) != 0 || next[id("c")].Version != people[id("c")].Version {
		t.Fatalf("untouched person c changed")
	}
}
