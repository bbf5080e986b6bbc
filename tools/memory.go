package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atomhq/atom-go-sdk/memory"
)

// Defaults applied when the model omits optional save_memory fields.
const (
	defaultMemoryType       = memory.TypeFact
	defaultMemoryImportance = 3
	defaultMemoryConfidence = 0.7
)

// RetrieveMemory is the synchronous memory read tool. It queries long-term
// memory and returns a compressed bulleted block.
type RetrieveMemory struct {
	retriever *memory.Retriever
}

// NewRetrieveMemory creates the retrieve_memory tool over a retriever.
func NewRetrieveMemory(r *memory.Retriever) *RetrieveMemory {
	return &RetrieveMemory{retriever: r}
}

func (t *RetrieveMemory) Name() string {
	return "retrieve_memory"
}

func (t *RetrieveMemory) Description() string {
	return "Search the user's long-term memory for facts, preferences, goals and ongoing projects relevant to a query. Use when prior context would improve your answer."
}

func (t *RetrieveMemory) Schema() map[string]interface{} {
	return ObjectSchema(map[string]interface{}{
		"query": StringProperty("What to look for, phrased as a short natural-language question or topic."),
	}, "query")
}

func (t *RetrieveMemory) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	block := t.retriever.Retrieve(ctx, args.Query)
	if block == "" {
		return "No relevant memories found.", nil
	}
	return block, nil
}

// SaveMemory is the explicit memory write tool. Candidates go through the
// same asynchronous consolidation path as judge-produced ones, so saving
// never blocks the conversation.
type SaveMemory struct {
	pipeline *memory.Pipeline
}

// NewSaveMemory creates the save_memory tool over the write pipeline.
func NewSaveMemory(p *memory.Pipeline) *SaveMemory {
	return &SaveMemory{pipeline: p}
}

func (t *SaveMemory) Name() string {
	return "save_memory"
}

func (t *SaveMemory) Description() string {
	return "Save a durable fact about the user to long-term memory. Use when the user states something worth remembering across conversations (preferences, goals, projects, skills, concerns)."
}

func (t *SaveMemory) Schema() map[string]interface{} {
	return ObjectSchema(map[string]interface{}{
		"text": StringProperty("The fact to remember, as a single self-contained sentence."),
		"type": StringEnumProperty("Category of the memory.",
			memory.TypeProject, memory.TypeGoal, memory.TypePreference,
			memory.TypeSkill, memory.TypeFact, memory.TypeConcern),
		"importance": IntegerProperty("How important this is to remember, 1 (trivial) to 5 (critical)."),
		"confidence": NumberProperty("How certain the fact is, 0.0 to 1.0."),
		"tags":       ArrayProperty("Short lowercase topic tags.", StringProperty("")),
	}, "text")
}

func (t *SaveMemory) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Text       string   `json:"text"`
		Type       string   `json:"type"`
		Importance int      `json:"importance"`
		Confidence float64  `json:"confidence"`
		Tags       []string `json:"tags"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(args.Text) == "" {
		return "", fmt.Errorf("text is required")
	}

	if args.Type == "" {
		args.Type = defaultMemoryType
	}
	if args.Importance == 0 {
		args.Importance = defaultMemoryImportance
	}
	if args.Confidence == 0 {
		args.Confidence = defaultMemoryConfidence
	}

	rec := memory.Record{
		Text:       strings.TrimSpace(args.Text),
		Type:       args.Type,
		Importance: args.Importance,
		Confidence: args.Confidence,
		Tags:       args.Tags,
	}
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("invalid memory: %w", err)
	}

	t.pipeline.SubmitCandidate(rec)
	return "Memory queued for storage.", nil
}
