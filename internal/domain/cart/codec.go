package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// EnvelopeVersion is the current persisted cart format.
const EnvelopeVersion = 1

// ErrCorrupt is returned by Decode for data that cannot be trusted.
var ErrCorrupt = errors.New("corrupt cart data")

// envelope is the persisted form. Checksum covers the raw Lines bytes.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Lines    json.RawMessage `json:"lines"`
}

// Encode serializes lines into a checksummed envelope.
func Encode(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal cart lines: %w", err)
	}
	data, err := json.Marshal(envelope{
		Version:  EnvelopeVersion,
		Checksum: checksum(raw),
		Lines:    raw,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cart envelope: %w", err)
	}
	return data, nil
}

// Decode parses data written by Encode. A bare JSON array of lines is
// accepted too. Any mismatch is reported as ErrCorrupt.
func Decode(data []byte) ([]Line, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorrupt)
	}

	if trimmed[0] == '[' {
		return decodeLines(trimmed)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}
	if got := checksum(env.Lines); got != env.Checksum {
		return nil, fmt.Errorf("%w: checksum %s, want %s", ErrCorrupt, got, env.Checksum)
	}
	return decodeLines(env.Lines)
}

func decodeLines(raw []byte) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return lines, nil
}

func checksum(raw []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}
