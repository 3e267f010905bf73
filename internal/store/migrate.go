package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	models "github.com/abhisek/proofcheck/ent/schema"
)

// entities lists the persisted schemas. Referenced tables come first.
var entities = []ent.Interface{
	models.Run{},
	models.RunResult{},
	models.LLMRequestEvent{},
}

// migrate creates or upgrades the tables described by entities.
func migrate(ctx context.Context, drv dialect.Driver) error {
	tables, err := buildTables(entities...)
	if err != nil {
		return err
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

// buildTables turns ent schema definitions into migration tables: mixin
// and declared fields become columns, an implicit auto-increment id is
// added when the schema declares none, and inverse edges that name a
// field become cascading foreign keys.
func buildTables(entities ...ent.Interface) ([]*schema.Table, error) {
	byType := make(map[string]*schema.Table, len(entities))
	tables := make([]*schema.Table, 0, len(entities))

	for _, e := range entities {
		name := reflect.TypeOf(e).Name()
		t := &schema.Table{Name: tableName(e)}

		var fields []ent.Field
		for _, m := range e.Mixin() {
			fields = append(fields, m.Fields()...)
		}
		fields = append(fields, e.Fields()...)

		for _, f := range fields {
			d := f.Descriptor()
			if d.Err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
			}
			t.Columns = append(t.Columns, column(d))
		}
		if id, ok := lookup(t, "id"); ok {
			t.PrimaryKey = []*schema.Column{id}
		} else {
			id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
			t.Columns = append([]*schema.Column{id}, t.Columns...)
			t.PrimaryKey = []*schema.Column{id}
		}

		var indexes []ent.Index
		for _, m := range e.Mixin() {
			indexes = append(indexes, m.Indexes()...)
		}
		indexes = append(indexes, e.Indexes()...)
		for _, idx := range indexes {
			d := idx.Descriptor()
			cols := make([]*schema.Column, 0, len(d.Fields))
			for _, fname := range d.Fields {
				c, ok := lookup(t, fname)
				if !ok {
					return nil, fmt.Errorf("%s: index on unknown field %q", name, fname)
				}
				cols = append(cols, c)
			}
			t.Indexes = append(t.Indexes, &schema.Index{
				Name:    t.Name + "_" + strings.Join(d.Fields, "_"),
				Unique:  d.Unique,
				Columns: cols,
			})
		}

		byType[name] = t
		tables = append(tables, t)
	}

	for _, e := range entities {
		t := byType[reflect.TypeOf(e).Name()]
		for _, ed := range e.Edges() {
			d := ed.Descriptor()
			if !d.Inverse || d.Field == "" {
				continue
			}
			ref, ok := byType[d.Type]
			if !ok {
				return nil, fmt.Errorf("%s: edge %q references unknown schema %q", t.Name, d.Name, d.Type)
			}
			col, ok := lookup(t, d.Field)
			if !ok {
				return nil, fmt.Errorf("%s: edge %q uses unknown field %q", t.Name, d.Name, d.Field)
			}
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
				Symbol:     t.Name + "_" + ref.Name + "_" + d.Name,
				Columns:    []*schema.Column{col},
				RefTable:   ref,
				RefColumns: ref.PrimaryKey,
				OnDelete:   schema.Cascade,
			})
		}
	}
	return tables, nil
}

func column(d *field.Descriptor) *schema.Column {
	c := &schema.Column{
		Name:     d.Name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Nullable: d.Optional || d.Nillable,
	}
	// Function defaults such as time.Now are applied by the caller.
	if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
		c.Default = d.Default
	}
	return c
}

func lookup(t *schema.Table, name string) (*schema.Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func tableName(e ent.Interface) string {
	for _, a := range e.Annotations() {
		switch a := a.(type) {
		case entsql.Annotation:
			if a.Table != "" {
				return a.Table
			}
		case *entsql.Annotation:
			if a.Table != "" {
				return a.Table
			}
		}
	}
	return strings.ToLower(reflect.TypeOf(e).Name()) + "s"
}
