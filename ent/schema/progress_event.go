package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProgressEvent records one domain event of a learner: a stage move, a
// bulk promotion, a fact-set milestone or a difficulty change.
type ProgressEvent struct {
	ent.Schema
}

func (ProgressEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ProgressEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty(),
		field.String("kind").
			NotEmpty().
			Comment("Event kind, e.g. individual_fact_progression or difficulty_changed"),
		field.String("fact_id").
			Default(""),
		field.String("fact_set_id").
			Default(""),
		field.String("from_stage").
			Default("").
			Comment("Difficulty ID for difficulty events"),
		field.String("to_stage").
			Default(""),
		field.String("trigger").
			Default(""),
		field.Int("streak").
			Default(0),
		field.Int("fact_count").
			Default(0).
			Comment("Facts moved by a bulk promotion"),
	}
}

func (ProgressEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id"),
		index.Fields("kind"),
	}
}
