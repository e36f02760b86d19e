package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/datenstrom/datenstrom-go/internal/raw"
)

// ErrOversizedEnvelope is returned when a CollectorPayload's fields other
// than body already exceed the configured max size.
var ErrOversizedEnvelope = errors.New("codec: oversized envelope")

// ErrOversizedItem is returned when a single payload_data item cannot fit
// into a frame by itself.
var ErrOversizedItem = errors.New("codec: oversized item")

type payloadDataBody struct {
	Schema string           `json:"schema"`
	Data   []json.RawMessage `json:"data"`
}

// SplitAndSerialize implements the §4.1 split algorithm: if the fully
// serialised payload already fits under maxSize it is emitted unsplit.
// Otherwise, when the body is a {schema, data: [...]} payload_data array,
// items are greedily packed into frames so that each frame (with envelope)
// stays at or under maxSize, preserving input order across frames.
func SplitAndSerialize(format Format, p raw.CollectorPayload, maxSize int) ([][]byte, error) {
	full, err := Encode(format, p)
	if err != nil {
		return nil, err
	}
	if len(full) <= maxSize {
		return [][]byte{full}, nil
	}

	withoutBody := p
	withoutBody.Body = nil
	envelope, err := Encode(format, withoutBody)
	if err != nil {
		return nil, err
	}
	if len(envelope) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrOversizedEnvelope, len(envelope), maxSize)
	}

	if len(p.Body) == 0 {
		return [][]byte{envelope}, nil
	}

	var body payloadDataBody
	if err := json.Unmarshal(p.Body, &body); err != nil || body.Schema == "" || body.Data == nil {
		// Not a {schema, data: [...]} payload_data body: lose the body
		// rather than guess at how to split it, per the open question in
		// the design notes.
		return [][]byte{envelope}, nil
	}

	envelopeSize := len(envelope)
	maxItemBudget := maxSize - envelopeSize

	var frames [][]byte
	var current []json.RawMessage

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		frameBody, err := json.Marshal(payloadDataBody{Schema: body.Schema, Data: current})
		if err != nil {
			return err
		}
		framePayload := p
		framePayload.Body = frameBody
		frame, err := Encode(format, framePayload)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
		current = nil
		return nil
	}

	for _, item := range body.Data {
		candidate := append(append([]json.RawMessage{}, current...), item)
		encodedCandidate, err := json.Marshal(payloadDataBody{Schema: body.Schema, Data: candidate})
		if err != nil {
			return nil, err
		}
		if len(encodedCandidate) > maxItemBudget {
			if len(current) == 0 {
				return nil, fmt.Errorf("%w: item does not fit within %d bytes", ErrOversizedItem, maxSize)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			// Re-check the single item against a fresh group.
			soloCandidate, err := json.Marshal(payloadDataBody{Schema: body.Schema, Data: []json.RawMessage{item}})
			if err != nil {
				return nil, err
			}
			if len(soloCandidate) > maxItemBudget {
				return nil, fmt.Errorf("%w: item does not fit within %d bytes", ErrOversizedItem, maxSize)
			}
			current = []json.RawMessage{item}
			continue
		}
		current = append(current, item)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return frames, nil
}
