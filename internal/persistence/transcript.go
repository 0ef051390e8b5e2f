package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// TranscriptLine is one JSONL line of an exported transcript.
type TranscriptLine struct {
	SessionID  string          `json:"session_id"`
	Turn       int             `json:"turn"`
	Action     string          `json:"action"`
	Narrative  string          `json:"narrative"`
	Status     string          `json:"status"`
	Metrics    json.RawMessage `json:"metrics"`
	Samples    json.RawMessage `json:"samples"`
	RecordedAt string          `json:"recorded_at"`
}

// ExportTranscript writes the journal of sessionID (every session when
// empty) to w as zstd-compressed JSONL and returns the number of lines.
func (db *DB) ExportTranscript(w io.Writer, sessionID string) (int, error) {
	records, err := db.Turns(sessionID)
	if err != nil {
		return 0, fmt.Errorf("load turns: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(enc)
	je := json.NewEncoder(bw)
	for _, r := range records {
		line := TranscriptLine{
			SessionID:  r.SessionID,
			Turn:       r.Turn,
			Action:     r.Action,
			Narrative:  r.Narrative,
			Status:     r.Status,
			Metrics:    json.RawMessage(r.MetricsJSON),
			Samples:    json.RawMessage(r.SamplesJSON),
			RecordedAt: r.RecordedAt,
		}
		if err := je.Encode(line); err != nil {
			_ = enc.Close()
			return 0, fmt.Errorf("encode turn %d: %w", r.Turn, err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadTranscript decodes a transcript written by ExportTranscript.
func ReadTranscript(r io.Reader) ([]TranscriptLine, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var lines []TranscriptLine
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var line TranscriptLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", len(lines)+1, err)
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
