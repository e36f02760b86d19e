package enrich

import (
	"encoding/json"
	"fmt"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
	"github.com/datenstrom/datenstrom-go/internal/iglu"
)

const schemaContextsWrapper = "iglu:com.snowplowanalytics.snowplow/contexts/jsonschema/1-0-1"
const schemaClientSession = "iglu:com.snowplowanalytics.snowplow/client_session/jsonschema/1-0-0"

// ContextExtractionEnrichment parses the tracker's "co"/"cx" custom
// contexts array and attaches each entry to the scratchpad. A recognised
// client_session context additionally flattens its sessionId/sessionIndex
// onto the atomic record's session_id/session_idx fields.
type ContextExtractionEnrichment struct {
	Registry *iglu.Registry
}

type contextsWrapper struct {
	Schema string `json:"schema"`
	Data   []struct {
		Schema string         `json:"schema"`
		Data   map[string]any `json:"data"`
	} `json:"data"`
}

func (x ContextExtractionEnrichment) Enrich(pad *Scratchpad) error {
	raw, ok := readBase64JSON(pad.RawFields["cx"])
	if !ok {
		raw = []byte(pad.RawFields["co"])
	}
	if len(raw) == 0 {
		return nil
	}

	var wrapper contextsWrapper
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return fmt.Errorf("enrich: invalid custom contexts payload: %w", err)
	}
	if wrapper.Schema != schemaContextsWrapper {
		return fmt.Errorf("enrich: unexpected contexts envelope schema %q", wrapper.Schema)
	}

	for _, c := range wrapper.Data {
		if x.Registry != nil {
			if entry, err := x.Registry.Resolve(c.Schema); err == nil {
				if !entry.IsValid(c.Data) {
					return fmt.Errorf("enrich: context data does not satisfy %s", c.Schema)
				}
			}
		}
		if err := pad.AddContext(atomic.SelfDescribingContext{Schema: c.Schema, Data: c.Data}); err != nil {
			return err
		}
		if c.Schema == schemaClientSession {
			if err := flattenClientSession(pad, c.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

func flattenClientSession(pad *Scratchpad, data map[string]any) error {
	if sessionID, ok := data["sessionId"].(string); ok && sessionID != "" {
		if err := pad.SetValue("session_id", sessionID); err != nil {
			return err
		}
	}
	if idx, ok := data["sessionIndex"]; ok {
		n, err := toInt(idx)
		if err == nil {
			if err := pad.SetValue("session_idx", n); err != nil {
				return err
			}
		}
	}
	return nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("enrich: session index is not numeric")
	}
}
