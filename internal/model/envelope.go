package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeVersion is the current on-disk envelope schema version.
const EnvelopeVersion = 1

// GeneratedBy identifies this tool as the writer of record in envelope metadata.
const GeneratedBy = "shardctl"

// VersionedEnvelope is the on-disk wrapper every corpus file is written in.
// Reading tolerates a bare-array payload (the legacy form, without the
// envelope); writing always emits the envelope form with a trailing newline.
type VersionedEnvelope[T any] struct {
	Version     int       `json:"version"`
	GeneratedBy string    `json:"generatedBy"`
	Timestamp   time.Time `json:"timestamp"`
	Data        T         `json:"data"`
}

// NewEnvelope wraps data in a fresh envelope stamped with the current time.
func NewEnvelope[T any](data T) VersionedEnvelope[T] {
	return VersionedEnvelope[T]{
		Version:     EnvelopeVersion,
		GeneratedBy: GeneratedBy,
		Timestamp:   time.Now(),
		Data:        data,
	}
}

// MarshalEnvelope encodes data as an envelope-wrapped, two-space-indented
// JSON document terminated with a trailing newline.
func MarshalEnvelope[T any](data T) ([]byte, error) {
	env := NewEnvelope(data)
	buf, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return append(buf, '\n'), nil
}

// UnmarshalEnvelope decodes raw into data, accepting either the envelope form
// ({version, generatedBy, timestamp, data}) or a bare-array/object legacy
// form. It tries the envelope form first; if that fails to populate a
// version, it falls back to unmarshaling raw directly as T.
func UnmarshalEnvelope[T any](raw []byte) (T, error) {
	var env VersionedEnvelope[T]
	if err := json.Unmarshal(raw, &env); err == nil && env.Version > 0 {
		return env.Data, nil
	}

	var bare T
	if err := json.Unmarshal(raw, &bare); err != nil {
		var zero T
		return zero, fmt.Errorf("unmarshal envelope or bare payload: %w", err)
	}
	return bare, nil
}
