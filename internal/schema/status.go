package schema

import (
	"fmt"
	"strings"
)

// Status is the per-node lifecycle state. It is a flag set: Create and Drop
// stand alone, the others combine under the rules enforced by Combine.
type Status uint8

// StatusOriginal marks an unchanged node.
const StatusOriginal Status = 0

const (
	StatusCreate Status = 1 << iota
	StatusAlter
	StatusDrop
	StatusRebuild
	StatusRebuildDependencies
	StatusDisabled
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusCreate, "Create"},
	{StatusAlter, "Alter"},
	{StatusDrop, "Drop"},
	{StatusRebuild, "Rebuild"},
	{StatusRebuildDependencies, "RebuildDependencies"},
	{StatusDisabled, "Disabled"},
}

// Has reports whether every bit of flag is set.
func (s Status) Has(flag Status) bool {
	return flag != 0 && s&flag == flag
}

// IsOriginal reports whether the node is untouched.
func (s Status) IsOriginal() bool { return s == StatusOriginal }

// IsCreate reports whether the node only exists in the destination.
func (s Status) IsCreate() bool { return s.Has(StatusCreate) }

// IsDrop reports whether the node only exists in the origin.
func (s Status) IsDrop() bool { return s.Has(StatusDrop) }

// IsAlterFamily reports whether the node exists on both sides with changes.
func (s Status) IsAlterFamily() bool {
	return s&(StatusAlter|StatusRebuild|StatusRebuildDependencies|StatusDisabled) != 0
}

// Combine returns s with flag merged in.
//
// Create and Drop never combine with another flag. Rebuild supersedes
// RebuildDependencies.
func (s Status) Combine(flag Status) (Status, error) {
	switch {
	case flag == StatusOriginal:
		return s, nil
	case flag == StatusCreate || flag == StatusDrop:
		if s == StatusOriginal || s == flag {
			return flag, nil
		}
		return s, fmt.Errorf("%s + %s: %w", s, flag, ErrInvalidStatus)
	case s.IsCreate() || s.IsDrop():
		return s, fmt.Errorf("%s + %s: %w", s, flag, ErrInvalidStatus)
	case flag.Has(StatusRebuild):
		return (s | flag) &^ StatusRebuildDependencies, nil
	case flag.Has(StatusRebuildDependencies) && s.Has(StatusRebuild):
		return s | (flag &^ StatusRebuildDependencies), nil
	}
	return s | flag, nil
}

// Valid reports whether s is a meaningful combination.
func (s Status) Valid() bool {
	if s.IsCreate() || s.IsDrop() {
		return s == StatusCreate || s == StatusDrop
	}
	return !(s.Has(StatusRebuild) && s.Has(StatusRebuildDependencies))
}

func (s Status) String() string {
	if s == StatusOriginal {
		return "Original"
	}
	var parts []string
	for _, n := range statusNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}

// MarkStatus merges flag into the status of n.
func MarkStatus(n Node, flag Status) error {
	m := n.Metadata()
	s, err := m.Status.Combine(flag)
	if err != nil {
		return fmt.Errorf("failed to mark %s %s: %w", n.Type(), n.FullName(), err)
	}
	m.Status = s
	return nil
}
