package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// dropObjects drops the synonyms, views and routines that are removed or
// replaced, and the changed indexes and triggers of kept views.
func (e *emitter) dropObjects() {
	if e.cfg.Synonyms {
		for _, s := range e.db.Synonyms.Items() {
			if replaced(s.Status) {
				e.emit("DROP SYNONYM "+e.qualify(s.Owner, s.Name), 0, ActionDropObject, s.FullName())
			}
		}
	}
	if e.cfg.Views {
		for _, v := range e.db.Views.Items() {
			switch {
			case replaced(v.Status):
				e.dropNode(v, 0)
			case v.Status.IsOriginal():
				for _, idx := range v.Indexes.Items() {
					if replaced(idx.Status) {
						e.dropNode(idx, 0)
					}
				}
				for _, tr := range v.Triggers.Items() {
					if replaced(tr.Status) {
						e.dropNode(tr, 0)
					}
				}
			}
		}
	}
	if e.cfg.StoredProcedures {
		e.dropRoutines(e.db.Procedures.Items())
	}
	if e.cfg.Functions {
		e.dropRoutines(e.db.Functions.Items())
	}
}

func (e *emitter) dropRoutines(routines []*schema.Routine) {
	for _, r := range routines {
		if replaced(r.Status) {
			e.dropNode(r, 0)
		}
	}
}

// createObjects creates new and replaced functions, views, procedures and
// synonyms. With all set every object is created.
func (e *emitter) createObjects(all bool) {
	if e.cfg.Functions {
		e.createRoutines(e.db.Functions.Items(), all)
	}
	if e.cfg.Views {
		for _, v := range e.db.Views.Items() {
			switch {
			case all || added(v.Status):
				e.createView(v)
				for _, idx := range v.Indexes.Items() {
					if !idx.Status.IsDrop() {
						e.createIndex(idx, 0)
					}
				}
				for _, tr := range v.Triggers.Items() {
					if !tr.Status.IsDrop() {
						e.createTrigger(tr, 0)
					}
				}
			case v.Status.IsOriginal():
				e.alterIndexes(v.Indexes.Items(), 0)
				e.alterTriggers(v.Triggers.Items(), 0)
			}
		}
	}
	if e.cfg.StoredProcedures {
		e.createRoutines(e.db.Procedures.Items(), all)
	}
	if e.cfg.Synonyms {
		for _, s := range e.db.Synonyms.Items() {
			if all || added(s.Status) {
				e.emit(fmt.Sprintf("CREATE SYNONYM %s FOR %s", e.qualify(s.Owner, s.Name), s.Target), 0, ActionAddObject, s.FullName())
			}
		}
	}
}

func (e *emitter) createRoutines(routines []*schema.Routine, all bool) {
	for _, r := range routines {
		if all || added(r.Status) {
			e.createRoutine(r)
		}
	}
}

func (e *emitter) dropView(v *schema.View) {
	e.emit("DROP VIEW "+e.qualify(v.Owner, v.Name), 0, ActionDropView, v.FullName())
	e.dropped[v] = true
}

func (e *emitter) createView(v *schema.View) {
	action := ActionAddView
	if v.Status.Has(schema.StatusAlter) {
		action = ActionAlterView
	}
	e.emit(v.Text, 0, action, v.FullName())
	delete(e.dropped, v)
}

func (e *emitter) dropRoutine(r *schema.Routine) {
	kind := "PROCEDURE"
	if r.Kind == schema.Function {
		kind = "FUNCTION"
	}
	e.emit(fmt.Sprintf("DROP %s %s", kind, e.qualify(r.Owner, r.Name)), 0, ActionDropRoutine, r.FullName())
	e.dropped[r] = true
}

func (e *emitter) createRoutine(r *schema.Routine) {
	action := ActionAddRoutine
	if r.Status.Has(schema.StatusAlter) {
		action = ActionAlterRoutine
	}
	e.emit(r.Text, 0, action, r.FullName())
	delete(e.dropped, r)
}

// supportObjects creates or changes the objects tables may rely on:
// filegroups, schemas, roles, users and alias types.
func (e *emitter) supportObjects(all bool) {
	if e.cfg.FileGroups && e.f.FileGroups {
		for _, fg := range e.db.FileGroups.Items() {
			switch {
			case all || fg.Status.IsCreate():
				e.createFileGroup(fg)
			case fg.Status.Has(schema.StatusAlter):
				e.alterFileGroup(fg)
			}
		}
	}
	if e.cfg.Schemas {
		for _, ns := range e.db.Schemas.Items() {
			switch {
			case all || ns.Status.IsCreate():
				sql := "CREATE SCHEMA " + e.d.Quote(ns.Name)
				if ns.Owner != "" {
					sql += " AUTHORIZATION " + e.d.Quote(ns.Owner)
				}
				e.emit(sql, 0, ActionAddObject, ns.FullName())
			case ns.Status.Has(schema.StatusAlter) && ns.Owner != "":
				e.emit(e.d.SchemaOwner(ns.Name, ns.Owner), 0, ActionAlterObject, ns.FullName())
			}
		}
	}
	if e.cfg.Roles {
		for _, r := range e.db.Roles.Items() {
			if r.Status.Has(schema.StatusAlter) {
				e.emit("DROP ROLE "+e.d.Quote(r.Name), 0, ActionDropObject, r.FullName())
			}
			if all || added(r.Status) {
				e.emit(e.createRoleSQL(r), 0, ActionAddObject, r.FullName())
			}
		}
	}
	if e.cfg.Users {
		for _, u := range e.db.Users.Items() {
			switch {
			case all || u.Status.IsCreate():
				e.emit(e.createUserSQL(u), 0, ActionAddObject, u.FullName())
			case u.Status.Has(schema.StatusAlter):
				e.emit(e.alterUserSQL(u), 0, ActionAlterObject, u.FullName())
			}
		}
	}
	if e.cfg.UserDataTypes {
		for _, ut := range e.db.UserTypes.Items() {
			if ut.Status.Has(schema.StatusAlter) {
				e.emit("DROP TYPE "+e.qualify(ut.Owner, ut.Name), 0, ActionDropObject, ut.FullName())
			}
			if all || added(ut.Status) {
				e.emit(e.createUserTypeSQL(ut), 0, ActionAddObject, ut.FullName())
			}
		}
	}
}

// dropSupportObjects drops removed support objects once nothing created
// in the script can still use them.
func (e *emitter) dropSupportObjects() {
	if e.cfg.Users {
		for _, u := range e.db.Users.Items() {
			if u.Status.IsDrop() {
				e.emit("DROP USER "+e.d.Quote(u.Name), 0, ActionDropObject, u.FullName())
			}
		}
	}
	if e.cfg.Roles {
		for _, r := range e.db.Roles.Items() {
			if r.Status.IsDrop() {
				e.emit(e.dropRoleSQL(r), 0, ActionDropObject, r.FullName())
			}
		}
	}
	if e.cfg.UserDataTypes {
		for _, ut := range e.db.UserTypes.Items() {
			if ut.Status.IsDrop() {
				e.emit("DROP TYPE "+e.qualify(ut.Owner, ut.Name), 0, ActionDropObject, ut.FullName())
			}
		}
	}
	if e.cfg.Schemas {
		for _, ns := range e.db.Schemas.Items() {
			if ns.Status.IsDrop() {
				e.emit("DROP SCHEMA "+e.d.Quote(ns.Name), 0, ActionDropObject, ns.FullName())
			}
		}
	}
	if e.cfg.FileGroups && e.f.FileGroups {
		for _, fg := range e.db.FileGroups.Items() {
			if fg.Status.IsDrop() {
				e.emit(fmt.Sprintf("ALTER DATABASE %s REMOVE FILEGROUP %s", e.d.Quote(e.db.Name), e.d.Quote(fg.Name)), 0, ActionDropObject, fg.FullName())
			}
		}
	}
}

func (e *emitter) createFileGroup(fg *schema.FileGroup) {
	db := e.d.Quote(e.db.Name)
	sql := fmt.Sprintf("ALTER DATABASE %s ADD FILEGROUP %s", db, e.d.Quote(fg.Name))
	if fg.FileStream {
		sql += " CONTAINS FILESTREAM"
	}
	e.emit(sql, 0, ActionAddObject, fg.FullName())
	if fg.IsDefault || fg.IsReadOnly {
		e.alterFileGroup(fg)
	}
}

func (e *emitter) alterFileGroup(fg *schema.FileGroup) {
	db, name := e.d.Quote(e.db.Name), e.d.Quote(fg.Name)
	mode := "READ_WRITE"
	if fg.IsReadOnly {
		mode = "READ_ONLY"
	}
	e.emit(fmt.Sprintf("ALTER DATABASE %s MODIFY FILEGROUP %s %s", db, name, mode), 0, ActionAlterObject, fg.FullName())
	if fg.IsDefault {
		e.emit(fmt.Sprintf("ALTER DATABASE %s MODIFY FILEGROUP %s DEFAULT", db, name), 0, ActionAlterObject, fg.FullName())
	}
}

func (e *emitter) createRoleSQL(r *schema.Role) string {
	if r.Application {
		return fmt.Sprintf("CREATE APPLICATION ROLE %s WITH PASSWORD = %s", e.d.Quote(r.Name), e.d.Literal(r.Password))
	}
	return "CREATE ROLE " + e.d.Quote(r.Name)
}

func (e *emitter) dropRoleSQL(r *schema.Role) string {
	if r.Application {
		return "DROP APPLICATION ROLE " + e.d.Quote(r.Name)
	}
	return "DROP ROLE " + e.d.Quote(r.Name)
}

func (e *emitter) createUserSQL(u *schema.User) string {
	var b strings.Builder
	b.WriteString("CREATE USER " + e.d.Quote(u.Name))
	if u.Login != "" {
		b.WriteString(" FOR LOGIN " + e.d.Quote(u.Login))
	} else {
		b.WriteString(" WITHOUT LOGIN")
	}
	if u.DefaultSchema != "" {
		b.WriteString(" WITH DEFAULT_SCHEMA = " + e.d.Quote(u.DefaultSchema))
	}
	return b.String()
}

func (e *emitter) alterUserSQL(u *schema.User) string {
	var opts []string
	if u.DefaultSchema != "" {
		opts = append(opts, "DEFAULT_SCHEMA = "+e.d.Quote(u.DefaultSchema))
	}
	if u.Login != "" {
		opts = append(opts, "LOGIN = "+e.d.Quote(u.Login))
	}
	if len(opts) == 0 {
		return ""
	}
	return fmt.Sprintf("ALTER USER %s WITH %s", e.d.Quote(u.Name), strings.Join(opts, ", "))
}

func (e *emitter) createUserTypeSQL(ut *schema.UserType) string {
	base := typeName(&schema.Column{DataType: ut.BaseType, Size: ut.Size, Precision: ut.Precision, Scale: ut.Scale}, "max")
	null := " NOT NULL"
	if ut.Nullable {
		null = " NULL"
	}
	return fmt.Sprintf("CREATE TYPE %s FROM %s%s", e.qualify(ut.Owner, ut.Name), base, null)
}
