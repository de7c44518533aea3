package lod

import (
	"fmt"
	"strings"
)

// Violation kinds reported by Verify.
const (
	ViolationIndex       = "index"
	ViolationReciprocity = "reciprocity"
	ViolationClosure     = "closure"
	ViolationChildren    = "children"
	ViolationParent      = "parent"
	ViolationDepth       = "depth"
	ViolationBalance     = "balance"
	ViolationDuplicate   = "duplicate-vertex"
)

// Violation is one broken structural property.
type Violation struct {
	Kind     string
	Triangle TriangleID
	Detail   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: triangle %d: %s", v.Kind, v.Triangle, v.Detail)
}

// Report collects the violations found by Verify.
type Report struct {
	Checked    int
	Violations []Violation
}

// OK reports whether no violation was found.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Err returns nil for a clean report and an ErrInconsistent wrapping the
// first violations otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	const shown = 5
	var sb strings.Builder
	for i, v := range r.Violations {
		if i == shown {
			fmt.Fprintf(&sb, "; and %d more", len(r.Violations)-shown)
			break
		}
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(v.String())
	}
	return fmt.Errorf("%w: %s", ErrInconsistent, sb.String())
}

func (r *Report) add(kind string, t TriangleID, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Kind: kind, Triangle: t, Detail: fmt.Sprintf(format, args...)})
}

// Verify checks the structural properties of the graph: index ranges,
// neighbor reciprocity, closure of every division, child and parent links,
// the depth bound, edge balance between leaves and, in precise mode, that no
// two visible vertices coincide. It is meant for tests and debugging, not
// for the per-frame path.
func (g *Graph) Verify(maxDepth uint32) *Report {
	r := &Report{}
	for i := range g.tris.Len() {
		t := TriangleID(i)
		if g.tris.deactivated.At(i) {
			continue
		}
		r.Checked++
		if !g.verifyIndices(r, t) {
			continue
		}
		g.verifyReciprocity(r, t)
		g.verifyParent(r, t)
		if g.tris.level.At(i) > maxDepth {
			r.add(ViolationDepth, t, "level %d exceeds max depth %d", g.tris.level.At(i), maxDepth)
		}
		if g.tris.divided.At(i) {
			g.verifyChildren(r, t)
			g.verifyClosure(r, t)
		} else {
			g.verifyBalance(r, t)
		}
	}
	if g.precise {
		g.verifyDuplicates(r)
	}
	return r
}

func (g *Graph) verifyIndices(r *Report, t TriangleID) bool {
	ok := true
	for _, v := range g.tris.abc.At(int(t)) {
		if v < 0 || int(v) >= g.verts.Len() {
			r.add(ViolationIndex, t, "vertex %d out of range", v)
			ok = false
		}
	}
	for e, n := range g.tris.neighbors.At(int(t)) {
		if !g.valid(n) {
			r.add(ViolationIndex, t, "neighbor %d across edge %d out of range", n, e)
			ok = false
		}
	}
	if p := g.tris.parent.At(int(t)); p != NoTriangle && !g.valid(p) {
		r.add(ViolationIndex, t, "parent %d out of range", p)
		ok = false
	}
	if g.tris.divided.At(int(t)) {
		for k, c := range g.tris.children.At(int(t)) {
			if !g.valid(c) {
				r.add(ViolationIndex, t, "child %d in slot %d out of range", c, k)
				ok = false
			}
		}
	}
	return ok
}

// verifyReciprocity checks that every neighbor is live and points back at t
// or, when it is shallower, at t's parent.
func (g *Graph) verifyReciprocity(r *Report, t TriangleID) {
	parent := g.tris.parent.At(int(t))
	for e, n := range g.tris.neighbors.At(int(t)) {
		if g.tris.deactivated.At(int(n)) {
			r.add(ViolationReciprocity, t, "neighbor %d across edge %d is deactivated", n, e)
			continue
		}
		if g.backEdge(n, t) >= 0 {
			continue
		}
		if parent != NoTriangle && g.tris.level.At(int(n)) < g.tris.level.At(int(t)) && g.backEdge(n, parent) >= 0 {
			continue
		}
		r.add(ViolationReciprocity, t, "neighbor %d across edge %d does not point back", n, e)
	}
}

func (g *Graph) verifyParent(r *Report, t TriangleID) {
	p := g.tris.parent.At(int(t))
	if p == NoTriangle {
		if int(t) >= RootTriangles {
			r.add(ViolationParent, t, "non-root triangle without parent")
		}
		return
	}
	if g.State(p) != Divided {
		r.add(ViolationParent, t, "parent %d is %s", p, g.State(p))
		return
	}
	if g.childIndex(t) < 0 {
		r.add(ViolationParent, t, "parent %d does not list it as a child", p)
	}
}

func (g *Graph) verifyChildren(r *Report, t TriangleID) {
	children := g.tris.children.At(int(t))
	level := g.tris.level.At(int(t))
	for k, c := range children {
		if c == t {
			r.add(ViolationChildren, t, "child slot %d refers to itself", k)
		}
		for j := k + 1; j < len(children); j++ {
			if children[j] == c {
				r.add(ViolationChildren, t, "child %d appears in slots %d and %d", c, k, j)
			}
		}
		if g.tris.deactivated.At(int(c)) {
			r.add(ViolationChildren, t, "child %d is deactivated", c)
		}
		if g.tris.parent.At(int(c)) != t {
			r.add(ViolationChildren, t, "child %d has parent %d", c, g.tris.parent.At(int(c)))
		}
		if g.tris.level.At(int(c)) != level+1 {
			r.add(ViolationChildren, t, "child %d at level %d, want %d", c, g.tris.level.At(int(c)), level+1)
		}
	}
}

// verifyClosure counts the edges of the four children: the three inner
// edges appear twice, the six outer half-edges once, and every parent edge
// is split into two outer halves meeting at one midpoint.
func (g *Graph) verifyClosure(r *Report, t TriangleID) {
	counts := make(map[[2]VertexID]int, 9)
	for _, c := range g.tris.children.At(int(t)) {
		abc := g.tris.abc.At(int(c))
		for e := range 3 {
			counts[edgeKey(abc, e)]++
		}
	}

	inner, outer := 0, 0
	for _, n := range counts {
		switch n {
		case 1:
			outer++
		case 2:
			inner++
		default:
			r.add(ViolationClosure, t, "child edge shared %d times", n)
			return
		}
	}
	if inner != 3 || outer != 6 {
		r.add(ViolationClosure, t, "children have %d inner and %d outer edges, want 3 and 6", inner, outer)
		return
	}

	abc := g.tris.abc.At(int(t))
	for e := range 3 {
		a, b := abc[e], abc[(e+1)%3]
		found := false
		for key, n := range counts {
			if n != 1 {
				continue
			}
			var mid VertexID
			switch {
			case key[0] == a:
				mid = key[1]
			case key[1] == a:
				mid = key[0]
			default:
				continue
			}
			if counts[pairKey(mid, b)] == 1 {
				found = true
				break
			}
		}
		if !found {
			r.add(ViolationClosure, t, "parent edge %d is not covered by two child half-edges", e)
		}
	}
}

// verifyBalance checks that no neighbor of the leaf t is more than one
// level away.
func (g *Graph) verifyBalance(r *Report, t TriangleID) {
	level := g.tris.level.At(int(t))
	for e, n := range g.tris.neighbors.At(int(t)) {
		nl := g.tris.level.At(int(n))
		if nl+1 < level {
			r.add(ViolationBalance, t, "neighbor %d across edge %d at level %d, own level %d", n, e, nl, level)
			continue
		}
		if !g.tris.divided.At(int(n)) {
			continue
		}
		f := g.backEdge(n, t)
		if f < 0 {
			continue
		}
		nc := g.tris.children.At(int(n))
		if g.tris.divided.At(int(nc[f])) || g.tris.divided.At(int(nc[(f+1)%3])) {
			r.add(ViolationBalance, t, "neighbor %d across edge %d is divided more than once along the edge", n, e)
		}
	}
}

// verifyDuplicates reports distinct visible vertices at the same position.
func (g *Graph) verifyDuplicates(r *Report) {
	seen := make(map[[3]float32]VertexID)
	owner := make(map[VertexID]TriangleID)
	for i := range g.tris.Len() {
		t := TriangleID(i)
		if !g.isLiveLeaf(t) {
			continue
		}
		for _, v := range g.tris.abc.At(i) {
			if _, ok := owner[v]; ok || v < 0 || int(v) >= g.verts.Len() {
				continue
			}
			owner[v] = t
			p := g.verts.pos.At(int(v))
			key := [3]float32{p[0], p[1], p[2]}
			if other, ok := seen[key]; ok && other != v {
				r.add(ViolationDuplicate, t, "vertex %d duplicates vertex %d", v, other)
				continue
			}
			seen[key] = v
		}
	}
}
