package er

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/erlayout/pkg/core/geom"
)

// Node is a sized diagram element.
type Node struct {
	ID     NodeID
	Width  float64
	Height float64
	Radius float64 // bounding-circle radius, sqrt(w²+h²)/2

	PrimaryKey  bool        // attributes only
	Cardinality Cardinality // relationships only
	Ends        [2]NodeID   // relationships only: the two entity endpoints
}

// SelfLoop reports whether a relationship node connects an entity to itself.
func (n *Node) SelfLoop() bool {
	return n.ID.IsRelationship() && n.Ends[0] == n.Ends[1]
}

// IssueKind classifies a problem found while building a graph.
type IssueKind string

// Issue kinds.
const (
	IssueEmptyName          IssueKind = "empty_name"
	IssueDuplicateEntity    IssueKind = "duplicate_entity"
	IssueDuplicateAttribute IssueKind = "duplicate_attribute"
	IssueDanglingAttribute  IssueKind = "dangling_attribute"
	IssueDanglingEndpoint   IssueKind = "dangling_endpoint"
)

// Issue is an input element that was skipped while building the graph.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Ref     string    `json:"ref,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s", i.Kind, i.Message) }

// Stats are the size metrics used for tier selection.
type Stats struct {
	Entities      int `json:"entities"`       // E
	Attributes    int `json:"attributes"`     // A
	Relationships int `json:"relationships"`  // R
	MaxAttributes int `json:"max_attributes"` // M, most attributes on a single entity
}

// Nodes returns E+A+R.
func (s Stats) Nodes() int { return s.Entities + s.Attributes + s.Relationships }

// Graph is the typed node/edge view of a [Document]. It is immutable after
// [Build] and safe for concurrent reads.
type Graph struct {
	nodes    map[NodeID]*Node
	entities []NodeID
	rels     []NodeID
	skeleton []NodeID // entities then relationships, sorted by Compare
	adj      map[NodeID][]NodeID
	attrs    map[NodeID][]NodeID
	all      []NodeID
	maxAttrs int
	nAttrs   int
}

// Build converts doc into a Graph. Unset node sizes come from sizes, whose
// own unset fields fall back to [DefaultSizes]. Elements with dangling or
// duplicate references are skipped and reported as issues.
func Build(doc Document, sizes Sizes) (*Graph, []Issue) {
	sizes = sizes.withDefaults()
	g := &Graph{
		nodes: make(map[NodeID]*Node),
		adj:   make(map[NodeID][]NodeID),
		attrs: make(map[NodeID][]NodeID),
	}
	var issues []Issue

	byName := make(map[string]NodeID, len(doc.Entities))
	for _, e := range doc.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			issues = append(issues, Issue{IssueEmptyName, "", "entity without a name"})
			continue
		}
		key := fold(name)
		if _, dup := byName[key]; dup {
			issues = append(issues, Issue{IssueDuplicateEntity, name,
				fmt.Sprintf("entity %q declared more than once", name)})
			continue
		}
		id := EntityID(name)
		byName[key] = id
		w, h := sized(e.Width, e.Height, sizes.Entity)
		g.nodes[id] = &Node{ID: id, Width: w, Height: h, Radius: geom.Radius(w, h)}
		g.entities = append(g.entities, id)
		g.adj[id] = nil
	}

	seenAttr := make(map[string]bool)
	for _, a := range doc.Attributes {
		name := strings.TrimSpace(a.Name)
		owner, ok := byName[fold(strings.TrimSpace(a.Entity))]
		switch {
		case name == "":
			issues = append(issues, Issue{IssueEmptyName, a.Entity, "attribute without a name"})
			continue
		case !ok:
			issues = append(issues, Issue{IssueDanglingAttribute, a.Entity + "." + name,
				fmt.Sprintf("attribute %q references unknown entity %q", name, a.Entity)})
			continue
		}
		key := fold(owner.Name) + "\x00" + fold(name)
		if seenAttr[key] {
			issues = append(issues, Issue{IssueDuplicateAttribute, owner.Name + "." + name,
				fmt.Sprintf("attribute %q declared more than once on %q", name, owner.Name)})
			continue
		}
		seenAttr[key] = true

		id := AttributeID(owner.Name, name)
		w, h := sized(a.Width, a.Height, sizes.Attribute)
		g.nodes[id] = &Node{ID: id, Width: w, Height: h, Radius: geom.Radius(w, h), PrimaryKey: a.PrimaryKey}
		g.attrs[owner] = append(g.attrs[owner], id)
		g.nAttrs++
	}

	for i, r := range doc.Relationships {
		e1, ok1 := byName[fold(strings.TrimSpace(r.Entity1))]
		e2, ok2 := byName[fold(strings.TrimSpace(r.Entity2))]
		if !ok1 || !ok2 {
			missing := r.Entity1
			if ok1 {
				missing = r.Entity2
			}
			issues = append(issues, Issue{IssueDanglingEndpoint, r.Name,
				fmt.Sprintf("relationship %q references unknown entity %q", r.Name, missing)})
			continue
		}
		id := RelationshipID(strings.TrimSpace(r.Name), i)
		w, h := sized(r.Width, r.Height, sizes.Relationship)
		g.nodes[id] = &Node{
			ID: id, Width: w, Height: h, Radius: geom.Radius(w, h),
			Cardinality: r.Cardinality,
			Ends:        [2]NodeID{e1, e2},
		}
		g.rels = append(g.rels, id)
		g.link(e1, id)
		if e2 != e1 {
			g.link(e2, id)
		}
	}

	for id, ns := range g.adj {
		slices.SortFunc(ns, Compare)
		g.adj[id] = slices.CompactFunc(ns, func(a, b NodeID) bool { return a == b })
	}
	for _, ids := range g.attrs {
		if len(ids) > g.maxAttrs {
			g.maxAttrs = len(ids)
		}
	}

	slices.SortFunc(g.entities, Compare)
	slices.SortFunc(g.rels, Compare)
	g.skeleton = append(append([]NodeID{}, g.entities...), g.rels...)
	for id := range g.nodes {
		g.all = append(g.all, id)
	}
	slices.SortFunc(g.all, Compare)

	return g, issues
}

func (g *Graph) link(entity, rel NodeID) {
	g.adj[entity] = append(g.adj[entity], rel)
	g.adj[rel] = append(g.adj[rel], entity)
}

func sized(w, h float64, def Size) (float64, float64) {
	if w <= 0 || h <= 0 {
		return def.Width, def.Height
	}
	return w, h
}

// Node returns the node for id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Radius returns the bounding radius of id, or 0 for unknown nodes.
func (g *Graph) Radius(id NodeID) float64 {
	if n, ok := g.nodes[id]; ok {
		return n.Radius
	}
	return 0
}

// Nodes returns every node identifier in [Compare] order.
func (g *Graph) Nodes() []NodeID { return g.all }

// Entities returns entity identifiers in [Compare] order.
func (g *Graph) Entities() []NodeID { return g.entities }

// Relationships returns relationship identifiers in [Compare] order.
func (g *Graph) Relationships() []NodeID { return g.rels }

// Skeleton returns entities followed by relationships, each in [Compare] order.
func (g *Graph) Skeleton() []NodeID { return g.skeleton }

// Neighbors returns the skeleton neighbors of id in [Compare] order:
// relationships for an entity, endpoint entities for a relationship.
func (g *Graph) Neighbors(id NodeID) []NodeID { return g.adj[id] }

// Attributes returns the attributes owned by entity in declaration order.
func (g *Graph) Attributes(entity NodeID) []NodeID { return g.attrs[entity] }

// Ends returns the two endpoint entities of a relationship node.
func (g *Graph) Ends(rel NodeID) (NodeID, NodeID, bool) {
	n, ok := g.nodes[rel]
	if !ok || !rel.IsRelationship() {
		return NodeID{}, NodeID{}, false
	}
	return n.Ends[0], n.Ends[1], true
}

// Other returns the endpoint of rel that is not entity. For self-loops it
// returns entity itself.
func (g *Graph) Other(rel, entity NodeID) NodeID {
	a, b, _ := g.Ends(rel)
	if a == entity {
		return b
	}
	return a
}

// Len returns the total node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Empty reports whether the graph has no entities.
func (g *Graph) Empty() bool { return len(g.entities) == 0 }

// Stats returns the size metrics used for tier selection.
func (g *Graph) Stats() Stats {
	return Stats{
		Entities:      len(g.entities),
		Attributes:    g.nAttrs,
		Relationships: len(g.rels),
		MaxAttributes: g.maxAttrs,
	}
}
