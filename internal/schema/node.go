package schema

import (
	"github.com/google/uuid"
)

// ObjectType identifies the kind of a schema node.
type ObjectType int

const (
	TypeDatabase ObjectType = iota
	TypeTable
	TypeColumn
	TypeDefault
	TypeConstraint
	TypeIndex
	TypeTrigger
	TypeTableOption
	TypeRowData
	TypeView
	TypeStoredProcedure
	TypeFunction
	TypeSynonym
	TypeSchema
	TypeRole
	TypeUser
	TypeFileGroup
	TypeUserDataType
)

var objectTypeNames = map[ObjectType]string{
	TypeDatabase:        "Database",
	TypeTable:           "Table",
	TypeColumn:          "Column",
	TypeDefault:         "Default",
	TypeConstraint:      "Constraint",
	TypeIndex:           "Index",
	TypeTrigger:         "Trigger",
	TypeTableOption:     "Table Option",
	TypeRowData:         "Row",
	TypeView:            "View",
	TypeStoredProcedure: "Stored Procedure",
	TypeFunction:        "Function",
	TypeSynonym:         "Synonym",
	TypeSchema:          "Schema",
	TypeRole:            "Role",
	TypeUser:            "User",
	TypeFileGroup:       "File Group",
	TypeUserDataType:    "User Data Type",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// addressable reports whether objects of this kind can be found by name in
// the global index. Members of a table (columns, options, rows, defaults)
// are only addressable by id.
func (t ObjectType) addressable() bool {
	switch t {
	case TypeColumn, TypeTableOption, TypeRowData, TypeDefault, TypeDatabase:
		return false
	}
	return true
}

// Meta holds the identity shared by every node.
type Meta struct {
	ID     int    `json:"id,omitempty"`
	GUID   string `json:"guid,omitempty"`
	Name   string `json:"name"`
	Owner  string `json:"owner,omitempty"`
	Status Status `json:"-"`
}

// Metadata returns the node identity.
func (m *Meta) Metadata() *Meta { return m }

// Node is implemented by every schema object.
type Node interface {
	Metadata() *Meta
	FullName() string
	Type() ObjectType
	Parent() Node
	// root returns the database the node is attached to, if any.
	root() *Database
}

// Element is a node that can live in a Collection owned by a P.
type Element[T any, P Node] interface {
	Node
	// Clone returns a deep copy attached to parent.
	Clone(parent P) T
	setParent(parent P)
	children() []Node
	link()
}

// Relation is a table or a view: the possible owners of indexes and triggers.
type Relation interface {
	Node
	relation()
}

// NewGUID returns a fresh stable identity for a node.
func NewGUID() string {
	return uuid.NewString()
}

// EnsureGUID assigns a GUID to m when the acquirer left it empty.
func (m *Meta) EnsureGUID() {
	if m.GUID == "" {
		m.GUID = NewGUID()
	}
}

// Qualify joins an owner and a name into a full name.
func Qualify(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

func rootOf(n Node) *Database {
	if n == nil {
		return nil
	}
	return n.root()
}

// walk calls fn for n and all of its descendants.
func walk(n Node, fn func(Node)) {
	fn(n)
	if c, ok := n.(interface{ children() []Node }); ok {
		for _, child := range c.children() {
			walk(child, fn)
		}
	}
}

// registryName is the key under which n is indexed by name.
func registryName(n Node) string {
	if q, ok := n.(interface{ qualifiedName() string }); ok {
		return q.qualifiedName()
	}
	return n.FullName()
}
