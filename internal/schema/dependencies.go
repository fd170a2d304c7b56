package schema

// Dependency is one edge of the dependency graph: Node exists only as long
// as member MemberID of owner OwnerID does. MemberID is 0 for edges on the
// owner as a whole.
type Dependency struct {
	OwnerID  int
	MemberID int
	ParentID int
	Node     Node
}

// Dependencies is an ordered multimap of dependency edges.
type Dependencies struct {
	edges []Dependency
}

// Add records that dependent depends on member memberID of owner ownerID.
func (d *Dependencies) Add(ownerID, memberID int, dependent Node) {
	parentID := 0
	if p := dependent.Parent(); p != nil {
		parentID = p.Metadata().ID
	}
	d.edges = append(d.edges, Dependency{
		OwnerID:  ownerID,
		MemberID: memberID,
		ParentID: parentID,
		Node:     dependent,
	})
}

// Len returns the number of edges.
func (d *Dependencies) Len() int {
	if d == nil {
		return 0
	}
	return len(d.edges)
}

// Find returns every object depending on ownerID, in insertion order and
// without duplicates.
func (d *Dependencies) Find(ownerID int) []Node {
	return d.collect(func(e Dependency) bool { return e.OwnerID == ownerID })
}

// FindColumn returns the objects depending on one member of ownerID.
func (d *Dependencies) FindColumn(ownerID, memberID int) []Node {
	return d.collect(func(e Dependency) bool { return e.OwnerID == ownerID && e.MemberID == memberID })
}

// DependencyCount returns the number of distinct dependents of kind that
// belong to an object other than id.
func (d *Dependencies) DependencyCount(id int, kind ObjectType) int {
	return len(d.collect(func(e Dependency) bool {
		return e.OwnerID == id && e.ParentID != id && e.Node.Type() == kind
	}))
}

func (d *Dependencies) collect(match func(Dependency) bool) []Node {
	if d == nil {
		return nil
	}
	var out []Node
	seen := make(map[Node]bool)
	for _, e := range d.edges {
		if !match(e) || seen[e.Node] {
			continue
		}
		seen[e.Node] = true
		out = append(out, e.Node)
	}
	return out
}
