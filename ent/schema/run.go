package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Run is one batch evaluation of a dataset.
type Run struct {
	ent.Schema
}

func (Run) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "runs"}}
}

func (Run) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			Comment("UUID assigned when the run is saved"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.String("source").
			Default("").
			Comment("Dataset path"),
		field.String("model_dir").
			Default(""),
		field.Bool("allow_rules").
			Default(false),
		field.Int("total").Default(0),
		field.Int("valid_count").Default(0),
		field.Int("invalid_count").Default(0),
		field.Int("unknown_count").Default(0),
		field.Int("skipped").Default(0),
		field.Int("malformed").Default(0),
		field.Float("avg_confidence").
			Optional().
			Nillable().
			Comment("Null when the run produced no result"),
		field.Float("accuracy").
			Optional().
			Nillable(),
		field.Bool("degraded").Default(false),
		field.Bool("cancelled").Default(false),
	}
}

func (Run) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("results", RunResult.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Run) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
	}
}
