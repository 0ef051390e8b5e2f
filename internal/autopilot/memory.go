package autopilot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	maxRecords    = 10
	promptRecords = 5 // how many recent records go into the LLM prompt
)

// CycleRecord captures what happened in a single mayor cycle.
type CycleRecord struct {
	Turn        int         `json:"turn"`
	Policy      string      `json:"policy"`
	Source      string      `json:"source"`
	Approval    float64     `json:"approval"`
	CrisisLevel CrisisLevel `json:"crisis_level"`
	Narrative   string      `json:"narrative,omitempty"`
}

// CycleMemory keeps the most recent cycle records. Path, when set, is where
// Save writes them.
type CycleMemory struct {
	Path    string        `json:"-"`
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file at path. Returns empty memory if the path
// is empty, missing or unreadable.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{Path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("mayor memory corrupted, starting fresh", "path", path, "error", err)
		return &CycleMemory{Path: path}
	}
	mem.trim()
	return mem
}

// Save writes the memory to disk. A memory without a path is not persisted.
func (m *CycleMemory) Save() error {
	if m.Path == "" {
		return nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	if err := os.WriteFile(m.Path, data, 0o644); err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	return nil
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	m.trim()
}

func (m *CycleMemory) trim() {
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Recent returns the last n records, oldest first.
func (m *CycleMemory) Recent(n int) []CycleRecord {
	if n > len(m.Records) {
		n = len(m.Records)
	}
	return m.Records[len(m.Records)-n:]
}

// FormatForPrompt summarizes the last few cycles for the LLM prompt.
func (m *CycleMemory) FormatForPrompt() string {
	if len(m.Records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Your Recent Policies\n")
	for _, r := range m.Recent(promptRecords) {
		fmt.Fprintf(&b, "- Turn %d (%s, approval %.1f%%): %q", r.Turn, r.CrisisLevel, r.Approval, r.Policy)
		if r.Narrative != "" {
			fmt.Fprintf(&b, " -> %s", r.Narrative)
		}
		b.WriteString("\n")
	}
	return b.String()
}
