package graph

import (
	kindred "github.com/kindredapp/kindred-go"
)

// View is a read-only window over a person collection. Hidden carries the
// identifiers supplied by the moderation layer; traversals skip them when
// set. A zero Hidden map (or nil) excludes nothing.
type View struct {
	People kindred.People
	Hidden map[kindred.PersonID]struct{}
}

// NewView wraps people without any moderation filtering.
func NewView(people kindred.People) View {
	return View{People: people}
}

// Hiding returns a copy of the view that skips the given identifiers.
func (v View) Hiding(ids ...kindred.PersonID) View {
	hidden := make(map[kindred.PersonID]struct{}, len(v.Hidden)+len(ids))
	for id := range v.Hidden {
		hidden[id] = struct{}{}
	}
	for _, id := range ids {
		hidden[id] = struct{}{}
	}
	return View{People: v.People, Hidden: hidden}
}

func (v View) skip(id kindred.PersonID) bool {
	_, ok := v.Hidden[id]
	return ok
}

// CountAncestors counts distinct people reachable up parent edges from id,
// excluding id itself. Returns 0 for an unknown id. The visited set keeps
// the walk finite even if a data bug introduced a cycle.
func (v View) CountAncestors(id kindred.PersonID) int {
	return v.countWalk(id, func(p kindred.Person) []kindred.PersonID { return p.ParentIDs })
}

// CountDescendants counts distinct people reachable down child edges from id,
// excluding id itself. Returns 0 for an unknown id.
func (v View) CountDescendants(id kindred.PersonID) int {
	return v.countWalk(id, func(p kindred.Person) []kindred.PersonID { return p.ChildIDs })
}

func (v View) countWalk(start kindred.PersonID, next func(kindred.Person) []kindred.PersonID) int {
	if _, ok := v.People[start]; !ok {
		return 0
	}

	visited := map[kindred.PersonID]bool{start: true}
	queue := []kindred.PersonID{start}
	count := 0

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, n := range next(v.People[id]) {
			if visited[n] || v.skip(n) {
				continue
			}
			visited[n] = true
			if _, ok := v.People[n]; !ok {
				continue
			}
			count++
			queue = append(queue, n)
		}
	}

	return count
}

// Siblings resolves everyone in id's transitive sibling group, excluding id,
// in visitation order. The reachability rule matches the one ApplyEdge uses
// when it rewrites a group: direct sibling edges plus shared-parent child
// lists, followed to fixpoint. Hidden identifiers are excluded from the walk
// itself, so a blocked person does not bridge two otherwise separate groups.
func (v View) Siblings(id kindred.PersonID) []kindred.Person {
	if _, ok := v.People[id]; !ok {
		return nil
	}

	visited := map[kindred.PersonID]bool{id: true}
	queue := []kindred.PersonID{id}
	var out []kindred.Person

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		p := v.People[cur]

		var reachable []kindred.PersonID
		reachable = append(reachable, p.SiblingIDs...)
		for _, pid := range p.ParentIDs {
			if v.skip(pid) {
				continue
			}
			parent, ok := v.People[pid]
			if !ok {
				continue
			}
			reachable = append(reachable, parent.ChildIDs...)
		}

		for _, n := range reachable {
			if visited[n] || v.skip(n) {
				continue
			}
			visited[n] = true
			member, ok := v.People[n]
			if !ok {
				continue
			}
			out = append(out, member)
			queue = append(queue, n)
		}
	}

	return out
}
