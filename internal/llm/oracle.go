// Turn oracle: asks the model to judge one mayoral action and turns the
// untrusted reply into an engine.TurnResult.
package llm

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talgya/neo-haven/internal/engine"
)

//go:embed turn_result.schema.json
var turnResultSchema string

var (
	schema = jsonschema.MustCompileString("turn_result.schema.json", turnResultSchema)
	tracer = otel.Tracer("github.com/talgya/neo-haven/internal/llm")
)

const turnMaxTokens = 1500

// Oracle implements engine.Oracle on top of a Client.
type Oracle struct {
	client    *Client
	attempts  uint
	retryBase time.Duration
}

// NewOracle wraps client. A nil client yields an oracle that reports
// engine.ErrOracleUnavailable on every call.
func NewOracle(client *Client, cfg Config) *Oracle {
	o := &Oracle{
		client:    client,
		attempts:  cfg.MaxAttempts,
		retryBase: cfg.RetryBase,
	}
	if o.attempts == 0 {
		o.attempts = 3
	}
	if o.retryBase <= 0 {
		o.retryBase = 500 * time.Millisecond
	}
	return o
}

// ResolveTurn asks the model to judge action. Without a configured client it
// returns engine.ErrOracleUnavailable. Every later failure (transport,
// status, unparseable or schema-violating reply) is logged and answered
// with engine.Fallback, so the turn still advances.
func (o *Oracle) ResolveTurn(ctx context.Context, m engine.Metrics, action string, turn int) (engine.TurnResult, error) {
	if !o.client.Enabled() {
		return engine.TurnResult{}, fmt.Errorf("llm: %w", engine.ErrOracleUnavailable)
	}

	ctx, span := tracer.Start(ctx, "oracle.resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("turn", turn))

	system := buildTurnSystemPrompt()
	user := buildTurnUserPrompt(m, action, turn)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.retryBase

	tries := 0
	result, err := backoff.Retry(ctx, func() (engine.TurnResult, error) {
		tries++
		text, err := o.client.Complete(ctx, system, user, turnMaxTokens)
		if err != nil {
			var se *StatusError
			if errors.Is(err, ErrRateLimited) || (errors.As(err, &se) && !se.Temporary()) {
				return engine.TurnResult{}, backoff.Permanent(err)
			}
			return engine.TurnResult{}, err
		}
		// A malformed reply is retried too; the model may do better next time.
		return parseTurnResponse(text, m, turn)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(o.attempts))

	span.SetAttributes(attribute.Int("attempts", tries))
	if err != nil {
		span.RecordError(err)
		slog.Warn("oracle unavailable, using fallback", "turn", turn, "attempts", tries, "error", err)
		return engine.Fallback(m), nil
	}
	return result, nil
}

func buildTurnSystemPrompt() string {
	return `You are the game engine for "Neo Haven", a realistic city simulator. The player is the mayor.

Judge each decree with economics, sociology and political science. Consequences must be logical but may include unintended side effects.

Respond ONLY with a single JSON object:
- "narrative": an immersive account of the outcome, at most 3 sentences
- "metrics": {"avgHappiness", "unemployment", "gdp", "crimeRate", "population", "govApproval", "turn"} as numbers; percentages are 0-100 and gdp is in millions
- "agentSamples": exactly 5 reactions from distinct demographics (low income vs wealthy, liberal vs conservative), each {"agentId", "name", "thought", "action"}; agentId may be an archetype such as "Wealthy Waterfront Conservative"
- "globalModifiers": {"happinessDelta", "wealthDelta", "crimeDelta", "unemploymentDelta"} applied to every simulated citizen (a tax rise may mean a negative wealthDelta)`
}

func buildTurnUserPrompt(m engine.Metrics, action string, turn int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn: %d\n", turn)
	fmt.Fprintf(&b, "Metrics: happiness %.1f, unemployment %.1f%%, GDP $%.0fM, crime %.1f, population %.0f, approval %.1f%%\n",
		m.AvgHappiness, m.Unemployment, m.GDP, m.CrimeRate, m.Population, m.GovApproval)
	fmt.Fprintf(&b, "Mayor's decree: %q\n\n", action)
	b.WriteString("Win: approval above 70% after 10 turns. Lose: approval below 30% at any time.\n")
	b.WriteString("Judge the decree. Respond with a single JSON object.")
	return b.String()
}

type rawSample struct {
	AgentID   string `json:"agentId"`
	Name      string `json:"name"`
	Thought   string `json:"thought"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
	FullStory string `json:"fullStory"`
}

type rawTurn struct {
	Narrative       string         `json:"narrative"`
	Metrics         map[string]any `json:"metrics"`
	AgentSamples    []rawSample    `json:"agentSamples"`
	GlobalModifiers map[string]any `json:"globalModifiers"`
}

// parseTurnResponse extracts, validates and coerces one model reply. prev
// supplies the value of any metric the reply omits or garbles.
func parseTurnResponse(response string, prev engine.Metrics, turn int) (engine.TurnResult, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return engine.TurnResult{}, err
	}

	var doc any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return engine.TurnResult{}, fmt.Errorf("parse turn result: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return engine.TurnResult{}, fmt.Errorf("turn result schema: %w", err)
	}

	var raw rawTurn
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return engine.TurnResult{}, fmt.Errorf("decode turn result: %w", err)
	}

	res := engine.TurnResult{
		Narrative: strings.TrimSpace(raw.Narrative),
		Metrics: engine.Metrics{
			AvgHappiness: percent(raw.Metrics["avgHappiness"], prev.AvgHappiness),
			Unemployment: percent(raw.Metrics["unemployment"], prev.Unemployment),
			GDP:          nonNegative(raw.Metrics["gdp"], prev.GDP),
			CrimeRate:    percent(raw.Metrics["crimeRate"], prev.CrimeRate),
			Population:   nonNegative(raw.Metrics["population"], prev.Population),
			GovApproval:  percent(raw.Metrics["govApproval"], prev.GovApproval),
			Turn:         turn + 1,
		},
		GlobalModifiers: engine.GlobalModifiers{
			HappinessDelta:    number(raw.GlobalModifiers["happinessDelta"], 0),
			WealthDelta:       number(raw.GlobalModifiers["wealthDelta"], 0),
			CrimeDelta:        number(raw.GlobalModifiers["crimeDelta"], 0),
			UnemploymentDelta: number(raw.GlobalModifiers["unemploymentDelta"], 0),
		},
		AgentSamples: make([]engine.AgentSample, 0, min(len(raw.AgentSamples), engine.MaxSamples)),
	}
	for _, s := range raw.AgentSamples {
		if len(res.AgentSamples) == engine.MaxSamples {
			break
		}
		res.AgentSamples = append(res.AgentSamples, engine.AgentSample{
			AgentID:   strings.TrimSpace(s.AgentID),
			Name:      strings.TrimSpace(s.Name),
			Thought:   strings.TrimSpace(s.Thought),
			Action:    strings.TrimSpace(s.Action),
			Reasoning: strings.TrimSpace(s.Reasoning),
			FullStory: strings.TrimSpace(s.FullStory),
		})
	}
	return res, nil
}

// extractJSON returns the outermost JSON object in s, ignoring code fences
// or prose around it.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// number coerces a JSON number or numeric string. Anything else, including
// non-finite values, yields fallback.
func number(v any, fallback float64) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSuffix(s, "%")
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func percent(v any, fallback float64) float64 {
	return math.Max(0, math.Min(100, number(v, fallback)))
}

func nonNegative(v any, fallback float64) float64 {
	return math.Max(0, number(v, fallback))
}
