package autopilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPolicyLen is the longest policy the mayor will submit, in characters.
const MaxPolicyLen = 200

const systemPrompt = `You are the Mayor of Neo Haven, a small city whose 100 residents judge every policy you enact.

Each turn you enact exactly ONE policy. An oracle then decides how the city reacts and updates its metrics.
Your government approval must stay at or above 30% on every turn, and must be above 70% after turn 10 to win.

## How to choose

- When approval is near the floor, pick policies with broad, immediate appeal.
- When crime or unemployment are high, address them directly.
- Do not repeat a policy that recently backfired.
- Write the policy as a short concrete action a city council could pass, under 200 characters.

## Response Format

Respond with ONLY valid JSON (no markdown, no explanation outside the JSON):
{
  "policy": "Open free evening job-training classes at the Industrial Zone community center.",
  "rationale": "Unemployment is rising in the Industrial Zone and approval is slipping there."
}`

// Completer is the slice of the LLM client the mayor needs.
type Completer interface {
	Enabled() bool
	Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error)
}

// Decision is the policy chosen for one turn.
type Decision struct {
	Policy    string `json:"policy"`
	Rationale string `json:"rationale"`
	Source    string `json:"-"` // "llm" or "fallback"
}

var (
	errEmptyPolicy   = errors.New("empty policy")
	errPolicyTooLong = fmt.Errorf("policy longer than %d characters", MaxPolicyLen)
	errControlChar   = errors.New("policy contains control characters")
)

// cannedPolicies are used when the LLM is unavailable or its answer fails
// the guardrails. Each level rotates through its list by turn.
var cannedPolicies = map[CrisisLevel][]string{
	Critical: {
		"Announce a one-time tax rebate for every household, funded by cutting the mayor's office budget.",
		"Freeze all utility and transit fares for the rest of the year.",
		"Hold open town-hall meetings in every district and publish the city budget online.",
	},
	Warning: {
		"Fund extra night patrols and street lighting in the districts with the most reported crime.",
		"Launch a paid apprenticeship program with local employers for out-of-work residents.",
		"Expand the free clinic hours and add a mobile health van for the Industrial Zone.",
	},
	Watch: {
		"Build a new public park with a playground and weekend farmers market downtown.",
		"Give small businesses a year of reduced permit fees to open new storefronts.",
		"Add weekend bus service connecting the Suburbs and the Waterfront.",
	},
	Healthy: {
		"Host a free citywide summer festival celebrating local artists and musicians.",
		"Plant shade trees along every main street and repair the worst sidewalks.",
		"Open the public library on Sundays with free coding and language classes.",
	},
}

// Fallback returns the canned policy for a crisis level on a given turn.
func Fallback(level CrisisLevel, turn int) Decision {
	list, ok := cannedPolicies[level]
	if !ok {
		list = cannedPolicies[Watch]
	}
	if turn < 0 {
		turn = -turn
	}
	return Decision{
		Policy:    list[turn%len(list)],
		Rationale: fmt.Sprintf("canned %s policy", strings.ToLower(string(level))),
		Source:    "fallback",
	}
}

// Decide asks the LLM for one policy. Any failure, including a guardrail
// violation, falls back to the canned policy for the crisis level; the
// error is returned alongside so the caller can log it.
func Decide(ctx context.Context, c Completer, snap *Snapshot, h Health, mem *CycleMemory) (Decision, error) {
	if c == nil || !c.Enabled() {
		return Fallback(h.CrisisLevel, h.Turn), nil
	}

	prompt := formatSnapshot(snap, h, mem)
	slog.Debug("mayor prompt", "length", len(prompt))

	resp, err := c.Complete(ctx, systemPrompt, prompt, 256)
	if err != nil {
		return Fallback(h.CrisisLevel, h.Turn), fmt.Errorf("llm call: %w", err)
	}

	d, err := parseDecision(resp)
	if err != nil {
		return Fallback(h.CrisisLevel, h.Turn), err
	}
	return d, nil
}

func parseDecision(resp string) (Decision, error) {
	// Strip markdown fences if the model wraps them anyway.
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var d Decision
	if err := json.Unmarshal([]byte(resp), &d); err != nil {
		return Decision{}, fmt.Errorf("parse decision (raw: %.120s): %w", resp, err)
	}
	policy, err := checkPolicy(d.Policy)
	if err != nil {
		return Decision{}, fmt.Errorf("guardrail violation: %w", err)
	}
	d.Policy = policy
	d.Rationale = strings.TrimSpace(d.Rationale)
	d.Source = "llm"
	return d, nil
}

// checkPolicy trims p and enforces the guardrails on it.
func checkPolicy(p string) (string, error) {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return "", errEmptyPolicy
	case utf8.RuneCountInString(p) > MaxPolicyLen:
		return "", errPolicyTooLong
	case strings.IndexFunc(p, unicode.IsControl) >= 0:
		return "", errControlChar
	}
	return p, nil
}

// formatSnapshot builds a concise prompt from the snapshot.
func formatSnapshot(snap *Snapshot, h Health, mem *CycleMemory) string {
	var b strings.Builder

	m := snap.State.Metrics
	fmt.Fprintf(&b, "## City State (turn %d, %d turns left, crisis level %s)\n", m.Turn, h.TurnsLeft, h.CrisisLevel)
	fmt.Fprintf(&b, "Approval: %.1f%% | Happiness: %.1f%% | Unemployment: %.1f%%\n", m.GovApproval, m.AvgHappiness, m.Unemployment)
	fmt.Fprintf(&b, "Crime: %.1f%% | GDP: $%.0fM | Population: %.0f\n", m.CrimeRate, m.GDP, m.Population)
	if d := snap.State.Deltas; d != nil {
		fmt.Fprintf(&b, "Last turn: approval %+.1f, happiness %+.1f, crime %+.1f\n", d.GovApproval, d.AvgHappiness, d.CrimeRate)
	}
	b.WriteString("\n")

	if len(snap.Districts) > 0 {
		b.WriteString("## Districts\n")
		for _, s := range snap.Districts {
			fmt.Fprintf(&b, "- %s: %d residents", s.District, s.Count)
			if s.MeanHappiness != nil {
				fmt.Fprintf(&b, ", happiness %.0f%%", *s.MeanHappiness)
			}
			if s.DominantPolitics != nil {
				fmt.Fprintf(&b, ", mostly %s", *s.DominantPolitics)
			}
			if s.LatestThought != "" {
				fmt.Fprintf(&b, ", one resident thinks: %q", s.LatestThought)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if mem != nil {
		b.WriteString(mem.FormatForPrompt())
	}
	return b.String()
}
