package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RunResult is the verdict for one proof within a run.
type RunResult struct {
	ent.Schema
}

func (RunResult) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "run_results"}}
}

func (RunResult) Fields() []ent.Field {
	return []ent.Field{
		field.String("run_id").
			Immutable(),
		field.Int("position").
			Comment("Index of the proof in the dataset"),
		field.String("proof_id"),
		field.String("verdict"),
		field.Float("confidence"),
		field.String("source"),
		field.String("rule").Default(""),
		field.String("expected").Default(""),
		field.String("flaw_type").Default(""),
		field.String("location").
			Default("").
			Comment("Flaw span as start-end"),
		field.Text("explanation").Default(""),
	}
}

func (RunResult) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", Run.Type).
			Ref("results").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (RunResult) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "position").Unique(),
	}
}
