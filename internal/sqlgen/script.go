package sqlgen

import "strings"

// Action classifies a script for grouping and reporting.
type Action int

const (
	ActionNone Action = iota
	ActionAddTable
	ActionDropTable
	ActionRebuildTable
	ActionAlterTable
	ActionAddColumn
	ActionAlterColumn
	ActionDropColumn
	ActionAddConstraint
	ActionAddConstraintFK
	ActionDropConstraint
	ActionDropConstraintFK
	ActionAlterConstraint
	ActionAddIndex
	ActionDropIndex
	ActionAlterIndex
	ActionAddDefault
	ActionDropDefault
	ActionAddTrigger
	ActionDropTrigger
	ActionAlterTrigger
	ActionAlterTableChangeTracking
	ActionAlterTableOption
	ActionAddView
	ActionDropView
	ActionAlterView
	ActionAddRoutine
	ActionDropRoutine
	ActionAlterRoutine
	ActionAddObject
	ActionDropObject
	ActionAlterObject
	ActionInsertRow
	ActionDeleteRow
)

var actionNames = [...]string{
	ActionNone:                     "None",
	ActionAddTable:                 "AddTable",
	ActionDropTable:                "DropTable",
	ActionRebuildTable:             "RebuildTable",
	ActionAlterTable:               "AlterTable",
	ActionAddColumn:                "AddColumn",
	ActionAlterColumn:              "AlterColumn",
	ActionDropColumn:               "DropColumn",
	ActionAddConstraint:            "AddConstraint",
	ActionAddConstraintFK:          "AddConstraintFK",
	ActionDropConstraint:           "DropConstraint",
	ActionDropConstraintFK:         "DropConstraintFK",
	ActionAlterConstraint:          "AlterConstraint",
	ActionAddIndex:                 "AddIndex",
	ActionDropIndex:                "DropIndex",
	ActionAlterIndex:               "AlterIndex",
	ActionAddDefault:               "AddDefault",
	ActionDropDefault:              "DropDefault",
	ActionAddTrigger:               "AddTrigger",
	ActionDropTrigger:              "DropTrigger",
	ActionAlterTrigger:             "AlterTrigger",
	ActionAlterTableChangeTracking: "AlterTableChangeTracking",
	ActionAlterTableOption:         "AlterTableOption",
	ActionAddView:                  "AddView",
	ActionDropView:                 "DropView",
	ActionAlterView:                "AlterView",
	ActionAddRoutine:               "AddRoutine",
	ActionDropRoutine:              "DropRoutine",
	ActionAlterRoutine:             "AlterRoutine",
	ActionAddObject:                "AddObject",
	ActionDropObject:               "DropObject",
	ActionAlterObject:              "AlterObject",
	ActionInsertRow:                "InsertRow",
	ActionDeleteRow:                "DeleteRow",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "Unknown"
	}
	return actionNames[a]
}

// Script is one executable statement of a diff.
type Script struct {
	SQL    string
	Weight int
	Action Action
	// Target is the full name of the object the statement changes.
	Target string
}

// List is an ordered sequence of scripts.
type List []Script

// Add appends a script. Empty statements are ignored.
func (l *List) Add(sql string, weight int, action Action, target string) {
	if strings.TrimSpace(sql) == "" {
		return
	}
	*l = append(*l, Script{SQL: sql, Weight: weight, Action: action, Target: target})
}

// SQL concatenates the statements in order.
func (l List) SQL() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.SQL)
	}
	return b.String()
}

// Actions returns the action of every script, in order.
func (l List) Actions() []Action {
	out := make([]Action, len(l))
	for i, s := range l {
		out[i] = s.Action
	}
	return out
}

// Filter returns the scripts matching keep.
func (l List) Filter(keep func(Script) bool) List {
	var out List
	for _, s := range l {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
