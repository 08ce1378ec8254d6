package progression

import (
	"context"

	"github.com/abhisek/timestables/internal/events"
	"github.com/abhisek/timestables/internal/store"
)

// flushEvents appends events collected during the last operation to the
// event log. Failures are logged and dropped.
func (o *Orchestrator) flushEvents(ctx context.Context) {
	pending := o.pending
	o.pending = nil
	if o.eventLog == nil {
		return
	}
	for _, e := range pending {
		data := progressEventData(e)
		data.LearnerID = o.learner.LearnerID()
		if err := o.eventLog.AppendProgressEvent(ctx, data); err != nil {
			o.log.Warn("recording progress event failed", "kind", e.Kind(), "error", err)
		}
	}
}

func progressEventData(e events.Event) store.ProgressEventData {
	data := store.ProgressEventData{
		Kind:      string(e.Kind()),
		Timestamp: e.OccurredAt(),
	}
	switch ev := e.(type) {
	case events.IndividualFactProgression:
		data.FactID = ev.FactID
		data.FactSetID = ev.FactSetID
		data.FromStage = ev.FromStage
		data.ToStage = ev.ToStage
		data.Trigger = string(ev.Trigger)
		data.Streak = ev.Streak
		data.FactCount = 1
	case events.BulkPromotion:
		data.FactSetID = ev.FactSetID
		data.FromStage = ev.FromStage
		data.FactCount = len(ev.FactIDs)
	case events.FactSetReviewReady:
		data.FactSetID = ev.FactSetID
	case events.FactSetCompletion:
		data.FactSetID = ev.FactSetID
	case events.DifficultyChanged:
		// Difficulty IDs reuse the stage columns.
		data.FromStage = ev.FromID
		data.ToStage = ev.ToID
	}
	return data
}
