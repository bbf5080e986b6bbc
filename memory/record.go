package memory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record categories. A record not carrying one of these is rejected.
const (
	TypeProject    = "project"
	TypeGoal       = "goal"
	TypePreference = "preference"
	TypeSkill      = "skill"
	TypeFact       = "fact"
	TypeConcern    = "concern"
)

// SourceConversation is the default provenance tag for records formed from
// conversational turns.
const SourceConversation = "conversation"

// ErrInvalidRecord marks a record that failed metadata validation.
var ErrInvalidRecord = errors.New("invalid memory record")

// ErrNotFound marks an operation against an id the store does not hold.
var ErrNotFound = errors.New("memory record not found")

// Record is a single durable memory: one compressed factual sentence plus
// judge-assigned metadata. The id is generated at creation and stable across
// updates; CreatedAt is set once and never mutated.
type Record struct {
	ID         string
	Text       string
	Type       string
	Importance int
	Confidence float64
	Tags       []string
	CreatedAt  time.Time
	Source     string
}

// validTypes is the closed set of record categories.
var validTypes = map[string]bool{
	TypeProject:    true,
	TypeGoal:       true,
	TypePreference: true,
	TypeSkill:      true,
	TypeFact:       true,
	TypeConcern:    true,
}

// Validate checks the metadata invariants: type in the closed set,
// importance in [1,5], confidence in [0,1]. A violating record is never
// partially written.
func (r *Record) Validate() error {
	if !validTypes[r.Type] {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, r.Type)
	}
	if r.Importance < 1 || r.Importance > 5 {
		return fmt.Errorf("%w: importance %d out of range [1,5]", ErrInvalidRecord, r.Importance)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f out of range [0,1]", ErrInvalidRecord, r.Confidence)
	}
	return nil
}

// fill assigns id, timestamp and provenance defaults for a fresh record.
func (r *Record) fill() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Source == "" {
		r.Source = SourceConversation
	}
}

// metadata flattens the record for storage backends that cannot hold nested
// lists: tags become a single comma-joined string.
func (r *Record) metadata() map[string]string {
	return map[string]string{
		"type":       r.Type,
		"importance": strconv.Itoa(r.Importance),
		"confidence": strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		"tags":       strings.Join(r.Tags, ", "),
		"created_at": r.CreatedAt.Format(time.RFC3339),
		"source":     r.Source,
	}
}

// recordFromDocument rebuilds a Record from its stored form. Tolerant of
// missing fields: unparseable numbers come back zero and fail validation
// downstream rather than erroring here.
func recordFromDocument(doc Document) Record {
	rec := Record{
		ID:     doc.ID,
		Text:   doc.Text,
		Type:   doc.Metadata["type"],
		Source: doc.Metadata["source"],
	}
	if v, err := strconv.Atoi(doc.Metadata["importance"]); err == nil {
		rec.Importance = v
	}
	if v, err := strconv.ParseFloat(doc.Metadata["confidence"], 64); err == nil {
		rec.Confidence = v
	}
	if tags := strings.TrimSpace(doc.Metadata["tags"]); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				rec.Tags = append(rec.Tags, t)
			}
		}
	}
	if ts, err := time.Parse(time.RFC3339, doc.Metadata["created_at"]); err == nil {
		rec.CreatedAt = ts
	}
	return rec
}
