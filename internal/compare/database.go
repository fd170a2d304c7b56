package compare

import (
	"context"
	"fmt"

	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/schema"
)

type category struct {
	name    string
	enabled bool
	run     func() error
}

// Databases merges destination into origin and returns the merged tree.
//
// Categories disabled in cfg are skipped entirely. The context is checked
// between categories; cancellation and every other failure surface as a
// *schema.SchemaError. The destination tree must not be used as an origin
// afterwards.
func Databases(ctx context.Context, origin, destination *schema.Database, cfg *config.Diffs, l Listener) (merged *schema.Database, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			merged = nil
			err = schema.WrapError("compare", fmt.Errorf("%v: %w", r, schema.ErrInternal))
		}
	}()

	tables := &tableComparer{cfg: cfg, listener: l}
	views := viewComparer{listener: l, indexes: cfg.Indexes, triggers: cfg.Triggers}

	categories := []category{
		{"File Groups", cfg.FileGroups, func() error { return Diff(origin.FileGroups, destination.FileGroups, fileGroupComparer, l) }},
		{"Schemas", cfg.Schemas, func() error { return Diff(origin.Schemas, destination.Schemas, namespaceComparer, l) }},
		{"User Data Types", cfg.UserDataTypes, func() error { return Diff(origin.UserTypes, destination.UserTypes, userTypeComparer, l) }},
		{"Tables", cfg.Tables, func() error { return Diff(origin.Tables, destination.Tables, tables, l) }},
		{"Views", cfg.Views, func() error { return Diff(origin.Views, destination.Views, views, l) }},
		{"Functions", cfg.Functions, func() error { return Diff(origin.Functions, destination.Functions, routineComparer, l) }},
		{"Stored Procedures", cfg.StoredProcedures, func() error { return Diff(origin.Procedures, destination.Procedures, routineComparer, l) }},
		{"Synonyms", cfg.Synonyms, func() error { return Diff(origin.Synonyms, destination.Synonyms, synonymComparer, l) }},
		{"Roles", cfg.Roles, func() error { return Diff(origin.Roles, destination.Roles, roleComparer, l) }},
		{"Users", cfg.Users, func() error { return Diff(origin.Users, destination.Users, userComparer, l) }},
	}

	for i, c := range categories {
		if err := ctx.Err(); err != nil {
			return nil, schema.WrapError("compare", err)
		}
		if !c.enabled {
			continue
		}
		notify(l, i*100/len(categories), "Comparing %s", c.name)
		if err := c.run(); err != nil {
			return nil, schema.WrapError("compare "+c.name, err)
		}
	}

	origin.BuildDependency()
	notify(l, 100, "Compare complete")
	return origin, nil
}
