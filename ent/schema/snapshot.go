package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Snapshot keeps earlier versions of a learner's saved state so a bad
// save can be rolled back by hand.
type Snapshot struct {
	ent.Schema
}

func (Snapshot) Fields() []ent.Field {
	return []ent.Field{
		field.String("key").
			NotEmpty().
			Comment("Persistence key, student_state/<learner id>"),
		field.Int64("sequence").
			Comment("Global sequence number when the snapshot was taken"),
		field.Time("timestamp").
			Default(time.Now),
		field.Bytes("data").
			Comment("Encoded student state"),
	}
}

func (Snapshot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("key", "sequence"),
	}
}
