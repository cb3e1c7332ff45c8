package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tripgenie/internal/ai"
	"tripgenie/internal/types"
)

const Stage = "intent_extraction"

// Extractor turns a free-text query into a TravelIntent with one LLM call.
type Extractor struct {
	llm      ai.Completer
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewExtractor(llm ai.Completer, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		llm:      llm,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithClock replaces the clock used for "today" in prompts.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract fails with *ExtractionError when the LLM answer is missing, malformed, or
// breaks a field constraint (days >= 1, travelers >= 1, date formats, enums).
func (e *Extractor) Extract(ctx context.Context, query string, qc QueryContext) (TravelIntent, ai.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return TravelIntent{}, ai.Result{}, &ExtractionError{Reason: ReasonEmptyQuery, Err: errors.New("query is empty")}
	}

	var out TravelIntent
	var rejected *ExtractionError
	res, err := e.llm.Complete(ctx, ai.Call{
		Stage:  Stage,
		Schema: intentSchema,
		System: systemPrompt,
		Prompt: buildUserPrompt(query, qc, e.now()),
		Accept: func() error {
			normalize(&out)
			out.OriginalQuery = query
			rejected = nil
			if cerr := e.check(out); cerr != nil {
				if !errors.As(cerr, &rejected) {
					rejected = &ExtractionError{Reason: ai.ReasonInvalidField, Err: cerr}
				}
				return rejected
			}
			return nil
		},
	}, &out)
	if rejected != nil && errors.Is(err, rejected) {
		e.log.Warn("intent rejected", zap.String("reason", rejected.Reason), zap.Error(rejected.Err))
		return TravelIntent{}, res, rejected
	}
	if err != nil {
		e.log.Warn("intent extraction failed", zap.String("reason", ai.Reason(err)), zap.Error(err))
		return TravelIntent{}, res, &ExtractionError{Reason: ai.Reason(err), Err: err}
	}

	e.log.Debug("intent extracted",
		zap.String("destination", out.Destination),
		zap.Int("days", out.Days),
		zap.Int("travelers", out.Travelers),
	)
	return out, res, nil
}

func (e *Extractor) check(t TravelIntent) error {
	if err := e.validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ai.ErrInvalidField, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ai.ErrInvalidField, err)
	}
	if t.StartDate != "" && t.EndDate != "" {
		start, _ := time.Parse(dateLayout, t.StartDate)
		end, _ := time.Parse(dateLayout, t.EndDate)
		if end.Before(start) {
			return &ExtractionError{
				Reason: ReasonDateRange,
				Err:    fmt.Errorf("%w: end_date %s is before start_date %s", ai.ErrInvalidField, t.EndDate, t.StartDate),
			}
		}
	}
	return nil
}

func normalize(t *TravelIntent) {
	t.Destination = strings.TrimSpace(t.Destination)
	t.Origin = strings.TrimSpace(t.Origin)
	t.Interests = normalizeTags(t.Interests)
	t.TravelerType = normalizeEnum(t.TravelerType)
	t.BudgetFlexibility = normalizeEnum(t.BudgetFlexibility)
	t.Pace = normalizeEnum(t.Pace)
	t.FlightClass = normalizeEnum(t.FlightClass)
	if t.Budget != nil {
		t.Budget.Currency = strings.ToUpper(strings.TrimSpace(t.Budget.Currency))
		if t.Budget.Currency == "" {
			t.Budget.Currency = types.DefaultCurrency
		}
	}
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeTags turns tags into a set, keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		n := normalizeTag(tag)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(strings.ReplaceAll(s, " ", "_"), "-", "_")
}
