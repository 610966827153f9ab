package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const draftInstruction = `You are a form builder assistant. Produce a JSON object
describing a form for the request below. The object has a "title" string and a
"properties" array. Each property is an object with "id" (a UUID), "name",
"type" (one of: text, email, url, phone_number, number, rating, scale, slider,
select, multi_select, date, files, checkbox, matrix, nf-text, nf-divider,
nf-image) and optional "help" text. Never emit payment blocks. Respond with
JSON only.

Request: %s`

// Generator produces model text for a prompt. Satisfied by *Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Draft is a model-proposed form: a title plus a property set that already
// passed the same validation applied to user-authored forms.
type Draft struct {
	Title      string           `json:"title"`
	Properties []map[string]any `json:"properties"`
}

type Service struct {
	logger    *zap.Logger
	generator Generator
	rule      *property.Rule
	tracer    trace.Tracer
}

func NewService(logger *zap.Logger, generator Generator, rule *property.Rule) *Service {
	return &Service{
		logger:    logger,
		generator: generator,
		rule:      rule,
		tracer:    otel.Tracer("ai/service"),
	}
}

// GenerateDraft asks the model for a form matching the description and
// validates the proposed properties before handing them back.
func (s *Service) GenerateDraft(ctx context.Context, description string) (Draft, error) {
	traceCtx, span := s.tracer.Start(ctx, "GenerateDraft")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	text, err := s.generator.Generate(traceCtx, fmt.Sprintf(draftInstruction, description))
	if err != nil {
		span.RecordError(err)
		return Draft{}, err
	}

	draft, err := parseDraft(text)
	if err != nil {
		logger.Warn("model returned an unparsable form draft", zap.Error(err))
		span.RecordError(err)
		return Draft{}, internal.ErrAssistantOutputInvalid
	}

	ensurePropertyIDs(draft.Properties)

	fieldErrors, err := s.rule.Validate(traceCtx, draft.Properties, &property.Context{})
	if err != nil {
		logger.Warn("model returned an invalid form draft",
			zap.Int("failing_fields", len(fieldErrors)))
		span.RecordError(err)
		return Draft{}, internal.ErrAssistantOutputInvalid
	}

	logger.Info("form draft generated",
		zap.String("title", draft.Title),
		zap.Int("properties", len(draft.Properties)))

	return draft, nil
}

// parseDraft handles both raw JSON and JSON wrapped in a markdown code fence.
func parseDraft(text string) (Draft, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return Draft{}, err
	}
	if draft.Title == "" {
		return Draft{}, fmt.Errorf("draft has no title")
	}
	if len(draft.Properties) == 0 {
		return Draft{}, fmt.Errorf("draft has no properties")
	}

	return draft, nil
}

// ensurePropertyIDs backfills missing or duplicated block ids. Models tend to
// reuse short placeholder ids across blocks.
func ensurePropertyIDs(properties []map[string]any) {
	seen := make(map[string]struct{}, len(properties))
	for _, prop := range properties {
		id, ok := prop["id"].(string)
		if !ok || id == "" {
			prop["id"] = uuid.NewString()
			continue
		}
		if _, dup := seen[id]; dup {
			prop["id"] = uuid.NewString()
			continue
		}
		seen[id] = struct{}{}
	}
}
