package events

import (
	"context"
	"fmt"
	"time"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// Generator diffs successive job snapshots and emits only the deltas,
// maintaining per-stream sets of seen ids and last-known states so that
// ids, once emitted, always appear in a later snapshot or are explicitly
// retired via annotation_removed.
type Generator struct {
	statusSent        bool
	lastStatus        job.Status
	canonicalTextSent bool
	documentTypeSent  bool
	errorSent         bool
	completeSent      bool

	annotationStates map[string]job.State
	individualsSeen  map[string]bool
	propertiesSeen   map[string]bool
	activityEmitted  int
}

func NewGenerator() *Generator {
	return &Generator{
		annotationStates: map[string]job.State{},
		individualsSeen:  map[string]bool{},
		propertiesSeen:   map[string]bool{},
	}
}

// Diff compares j against the generator's last-known state and returns
// the events that must be emitted to bring a client snapshot current.
func (g *Generator) Diff(j *job.Job) []Event {
	var out []Event

	if !g.statusSent || g.lastStatus != j.Status {
		payload := map[string]any{"job_id": j.ID, "status": j.Status}
		if !g.canonicalTextSent && j.Result.CanonicalText.FullText != "" {
			payload["canonical_text"] = j.Result.CanonicalText.FullText
			g.canonicalTextSent = true
		}
		out = append(out, Event{Type: EventStatus, Payload: payload})
		g.statusSent = true
		g.lastStatus = j.Status
	}

	if !g.documentTypeSent && j.Result.Metadata.DocumentType != "" {
		out = append(out, Event{Type: EventDocumentType, Payload: map[string]any{
			"document_type": j.Result.Metadata.DocumentType,
			"confidence":    j.Result.Metadata.DocumentTypeConfidence,
		}})
		g.documentTypeSent = true
	}

	out = append(out, g.diffAnnotations(j)...)
	out = append(out, g.diffIndividuals(j)...)
	out = append(out, g.diffProperties(j)...)
	out = append(out, g.diffActivity(j)...)

	if !g.errorSent && j.ErrorMessage != "" {
		out = append(out, Event{Type: EventError, Payload: map[string]any{"error": j.ErrorMessage}})
		g.errorSent = true
	}

	if !g.completeSent && (j.Status == job.StatusCompleted || j.Status == job.StatusFailed) {
		out = append(out, Event{Type: EventComplete, Payload: map[string]any{
			"job_id":           j.ID,
			"status":           j.Status,
			"annotation_count": len(j.Result.Annotations),
			"individual_count": len(j.Result.Individuals),
			"property_count":   len(j.Result.Properties),
		}})
		g.completeSent = true
	}

	return out
}

func (g *Generator) diffAnnotations(j *job.Job) []Event {
	var out []Event
	current := make(map[string]bool, len(j.Result.Annotations))

	for i := range j.Result.Annotations {
		a := &j.Result.Annotations[i]
		current[a.ID] = true

		prevState, seen := g.annotationStates[a.ID]
		switch {
		case !seen && a.State == job.StatePreliminary:
			out = append(out, Event{Type: EventPreliminaryAnnotation, Payload: a})
		case !seen:
			out = append(out, Event{Type: EventAnnotation, Payload: a})
		case prevState != a.State:
			out = append(out, Event{Type: EventAnnotationUpdate, Payload: a})
		}
		g.annotationStates[a.ID] = a.State
	}

	for id := range g.annotationStates {
		if !current[id] {
			out = append(out, Event{Type: EventAnnotationRemoved, Payload: map[string]string{"id": id}})
			delete(g.annotationStates, id)
		}
	}

	return out
}

func (g *Generator) diffIndividuals(j *job.Job) []Event {
	var out []Event
	for i := range j.Result.Individuals {
		ind := &j.Result.Individuals[i]
		if g.individualsSeen[ind.ID] {
			continue
		}
		g.individualsSeen[ind.ID] = true
		out = append(out, Event{Type: EventIndividualAdded, Payload: ind})
	}
	return out
}

func (g *Generator) diffProperties(j *job.Job) []Event {
	var out []Event
	for i := range j.Result.Properties {
		p := &j.Result.Properties[i]
		if g.propertiesSeen[p.ID] {
			continue
		}
		g.propertiesSeen[p.ID] = true
		out = append(out, Event{Type: EventPropertyAdded, Payload: p})
	}
	return out
}

func (g *Generator) diffActivity(j *job.Job) []Event {
	var out []Event
	log := j.Result.Metadata.ActivityLog
	for ; g.activityEmitted < len(log); g.activityEmitted++ {
		out = append(out, Event{Type: EventActivity, Payload: log[g.activityEmitted]})
	}
	return out
}

// Loader is the subset of the job store contract the poller needs,
// mirroring pkg/pipeline.Persister's narrow-interface pattern to avoid
// an import cycle with pkg/jobstore.
type Loader interface {
	Load(ctx context.Context, id string) (*job.Job, error)
}

// Stream polls store for job id at pollInterval, writing diffed events to
// w, until the job reaches a terminal status or ctx is cancelled. A
// load failure emits a single error event and stops.
func Stream(ctx context.Context, store Loader, id string, w *Writer, pollInterval time.Duration) error {
	gen := NewGenerator()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		j, err := store.Load(ctx, id)
		if err != nil {
			return w.WriteEvent(Event{Type: EventError, Payload: map[string]any{"error": err.Error()}})
		}
		if j == nil {
			return w.WriteEvent(Event{Type: EventError, Payload: map[string]any{"error": fmt.Sprintf("job %s not found", id)}})
		}

		for _, ev := range gen.Diff(j) {
			if err := w.WriteEvent(ev); err != nil {
				return err
			}
		}

		if j.Status == job.StatusCompleted || j.Status == job.StatusFailed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
