// Package graph maintains the denormalized family graph: four adjacency
// arrays per person, kept symmetric and sibling-transitively closed by
// ApplyEdge, and queried read-only through View.
//
// Everything here is pure. Collections are treated as immutable values:
// ApplyEdge returns a fresh map and fresh Person values for every person it
// touched, so callers can rely on reference identity for change detection.
package graph

import (
	"time"

	kindred "github.com/kindredapp/kindred-go"
)

// ApplyEdge returns the collection with both endpoints of edge linked.
//
// Self-relationships fail with InvalidEdgeError before anything is copied.
// A missing endpoint is a no-op returning the input collection unchanged;
// callers that need a hard failure must validate existence themselves.
//
// Parent and child edges both mean "person one is the parent". Sibling edges
// resolve the transitive sibling group of the two endpoints and rewrite
// every member's siblingIds to the full group, then propagate the endpoints'
// parents to each other.
func ApplyEdge(people kindred.People, edge kindred.Edge) (kindred.People, error) {
	if edge.PersonOneID == edge.PersonTwoID {
		return people, InvalidEdgeError{Edge: edge, Reason: "a person cannot be their own relative"}
	}
	if !edge.Type.Valid() {
		return people, InvalidEdgeError{Edge: edge, Reason: "unknown edge type"}
	}

	one, okOne := people[edge.PersonOneID]
	two, okTwo := people[edge.PersonTwoID]
	if !okOne || !okTwo {
		return people, nil
	}

	switch edge.Type {
	case kindred.EdgeParent, kindred.EdgeChild:
		return applyParentChild(people, one, two), nil
	case kindred.EdgeSpouse:
		return applySpouse(people, one, two), nil
	case kindred.EdgeSibling:
		return applySibling(people, one, two), nil
	}
	return people, nil
}

// mutation accumulates touched persons before publishing a new collection.
type mutation struct {
	base    kindred.People
	touched map[kindred.PersonID]kindred.Person
}

func newMutation(base kindred.People) *mutation {
	return &mutation{
		base:    base,
		touched: make(map[kindred.PersonID]kindred.Person),
	}
}

func (m *mutation) get(id kindred.PersonID) kindred.Person {
	if p, ok := m.touched[id]; ok {
		return p
	}
	return m.base[id]
}

func (m *mutation) put(p kindred.Person) {
	m.touched[p.ID] = p
}

// commit builds the new collection. If nothing was touched the original
// reference is returned so idempotent edges cause no version bumps and no
// re-renders.
func (m *mutation) commit() kindred.People {
	if len(m.touched) == 0 {
		return m.base
	}

	now := time.Now().UTC()
	next := make(kindred.People, len(m.base))
	for id, p := range m.base {
		next[id] = p
	}
	for id, p := range m.touched {
		p.Version = m.base[id].Version + 1
		p.UpdatedAt = now
		next[id] = p
	}
	return next
}

func applyParentChild(people kindred.People, parent, child kindred.Person) kindred.People {
	if kindred.ContainsID(parent.ChildIDs, child.ID) && kindred.ContainsID(child.ParentIDs, parent.ID) {
		return people
	}

	m := newMutation(people)
	linkParentChild(m, parent.ID, child.ID)
	return m.commit()
}

func applySpouse(people kindred.People, one, two kindred.Person) kindred.People {
	if kindred.ContainsID(one.SpouseIDs, two.ID) && kindred.ContainsID(two.SpouseIDs, one.ID) {
		return people
	}

	m := newMutation(people)

	a := m.get(one.ID)
	a.SpouseIDs = kindred.AppendID(kindred.CloneIDs(a.SpouseIDs), two.ID)
	m.put(a)

	b := m.get(two.ID)
	b.SpouseIDs = kindred.AppendID(kindred.CloneIDs(b.SpouseIDs), one.ID)
	m.put(b)

	return m.commit()
}

// applySibling rewrites the whole sibling group of the two endpoints.
//
// The group is the closure reachable from either endpoint over direct
// sibling edges and shared-parent child lists, computed to fixpoint. Because
// every existing sibling of a member is itself reachable, assigning
// group-minus-self to each member never drops a previously linked sibling.
func applySibling(people kindred.People, one, two kindred.Person) kindred.People {
	group := siblingClosure(people, one.ID, two.ID)

	m := newMutation(people)

	for _, id := range group {
		p := m.get(id)
		want := groupMinusSelf(group, id)
		if !sameIDSet(p.SiblingIDs, want) {
			p.SiblingIDs = want
			m.put(p)
		}
	}

	// Siblings are inferred to share parents once linked: each endpoint
	// adopts the other's parents. A parent who is themselves in the group
	// is never propagated; linking one would write a self parent/child
	// reference on that endpoint.
	inGroup := make(map[kindred.PersonID]bool, len(group))
	for _, id := range group {
		inGroup[id] = true
	}

	parents := kindred.CloneIDs(one.ParentIDs)
	for _, pid := range two.ParentIDs {
		parents = kindred.AppendID(parents, pid)
	}
	for _, endpointID := range []kindred.PersonID{one.ID, two.ID} {
		for _, pid := range parents {
			if _, ok := people[pid]; !ok {
				continue
			}
			if inGroup[pid] {
				continue
			}
			ep := m.get(endpointID)
			par := m.get(pid)
			if !kindred.ContainsID(ep.ParentIDs, pid) || !kindred.ContainsID(par.ChildIDs, endpointID) {
				linkParentChild(m, pid, endpointID)
			}
		}
	}

	return m.commit()
}

func linkParentChild(m *mutation, parentID, childID kindred.PersonID) {
	p := m.get(parentID)
	p.ChildIDs = kindred.AppendID(kindred.CloneIDs(p.ChildIDs), childID)
	m.put(p)

	c := m.get(childID)
	c.ParentIDs = kindred.AppendID(kindred.CloneIDs(c.ParentIDs), parentID)
	m.put(c)
}

// siblingClosure walks direct sibling edges and shared-parent child lists
// breadth-first from both seeds. Visitation order is stable for a given
// collection but carries no meaning.
func siblingClosure(people kindred.People, seeds ...kindred.PersonID) []kindred.PersonID {
	var group []kindred.PersonID
	visited := make(map[kindred.PersonID]bool)

	queue := make([]kindred.PersonID, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := people[s]; !ok || visited[s] {
			continue
		}
		visited[s] = true
		queue = append(queue, s)
		group = append(group, s)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p := people[id]

		var reachable []kindred.PersonID
		reachable = append(reachable, p.SiblingIDs...)
		for _, pid := range p.ParentIDs {
			parent, ok := people[pid]
			if !ok {
				continue
			}
			reachable = append(reachable, parent.ChildIDs...)
		}

		for _, next := range reachable {
			if visited[next] {
				continue
			}
			if _, ok := people[next]; !ok {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
			group = append(group, next)
		}
	}

	return group
}

func groupMinusSelf(group []kindred.PersonID, self kindred.PersonID) []kindred.PersonID {
	out := make([]kindred.PersonID, 0, len(group)-1)
	for _, id := range group {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

func sameIDSet(a, b []kindred.PersonID) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !kindred.ContainsID(b, id) {
			return false
		}
	}
	return true
}
