package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// StudentState is the current saved state per persistence key. Saves
// upsert on key.
type StudentState struct {
	ent.Schema
}

func (StudentState) Fields() []ent.Field {
	return []ent.Field{
		field.String("key").
			Unique().
			NotEmpty(),
		field.Bytes("data").
			Comment("Versioned JSON document"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}
