// Package enrich implements the fixed-order enrichment chain that turns a
// raw tracker payload into one or more AtomicEvent records.
package enrich

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
	"github.com/datenstrom/datenstrom-go/internal/iglu"
	"github.com/datenstrom/datenstrom-go/internal/raw"
)

var (
	// ErrUnknownField is returned by SetValue for a field name the atomic
	// record doesn't declare.
	ErrUnknownField = errors.New("enrich: unknown field")
	// ErrForbiddenField is returned by SetValue for "contexts" and "event",
	// which may only be mutated through AddContext/SetEvent.
	ErrForbiddenField = errors.New("enrich: forbidden field")
	// ErrDuplicateContext is returned by AddContext when a context with the
	// same schema has already been attached.
	ErrDuplicateContext = errors.New("enrich: duplicate context")
	// ErrEventAlreadySet is returned by SetEvent once the event has already
	// been assigned.
	ErrEventAlreadySet = errors.New("enrich: event already set")
	// ErrEventNotSet is returned by ToAtomicEvent if no event was ever
	// assigned.
	ErrEventNotSet = errors.New("enrich: event not set")
	// ErrInvalidAtomic is returned by ToAtomicEvent when the composed record
	// fails the atomic schema.
	ErrInvalidAtomic = errors.New("enrich: invalid atomic event")
)

// atomicEntry is the compiled io.datenstrom/atomic schema every finished
// Scratchpad is checked against before it leaves the enrichment chain.
var atomicEntry = mustCompileAtomicEntry()

func mustCompileAtomicEntry() iglu.Entry {
	schema := iglu.MustParseSchema("iglu:io.datenstrom/atomic/jsonschema/1-0-0")
	entry, err := iglu.NewEntry(schema, atomic.Schema)
	if err != nil {
		panic(err)
	}
	return entry
}

var forbiddenFields = map[string]struct{}{
	"contexts": {},
	"event":    {},
}

// fieldIndex maps an atomic field's wire name to its struct field index,
// built once by reflecting over atomic.AtomicEvent's json tags.
var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	t := reflect.TypeOf(atomic.AtomicEvent{})
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := tag
		for j, c := range tag {
			if c == ',' {
				name = tag[:j]
				break
			}
		}
		idx[name] = i
	}
	return idx
}

// Scratchpad ("temporary atomic event") is the mutable accumulator a raw
// payload's candidate event is built up in as it passes through the
// enrichment chain. Each raw payload gets a fresh Scratchpad per candidate
// event; it is never reused across payloads.
type Scratchpad struct {
	// Payload is the raw envelope the candidate event was extracted from.
	// Enrichers read it for collector-side context (timestamp, hostname,
	// default IP/useragent) but never mutate it.
	Payload raw.CollectorPayload
	// RawFields holds this candidate's decomposed tracker key/value pairs
	// (from the query string, merged with a payload_data body item when
	// the event came from a batched POST).
	RawFields map[string]string
	// Disabled names enrichment stages the site's remote config has turned
	// off for this hostname ("geoip", "device", "campaign", "pii").
	Disabled map[string]bool

	event    atomic.AtomicEvent
	eventSet bool
	contexts map[string]struct{}
}

// NewScratchpad returns an empty Scratchpad seeded with the raw payload and
// this candidate event's decomposed tracker fields.
func NewScratchpad(payload raw.CollectorPayload, rawFields map[string]string) *Scratchpad {
	return &Scratchpad{
		Payload:   payload,
		RawFields: rawFields,
		contexts:  make(map[string]struct{}),
	}
}

// SetValue assigns value onto the atomic field named by key. key must be a
// known atomic field name other than "contexts"/"event"; value's type must
// match the field (or the field's pointer element type).
func (s *Scratchpad) SetValue(key string, value any) error {
	if _, forbidden := forbiddenFields[key]; forbidden {
		return fmt.Errorf("%w: %s", ErrForbiddenField, key)
	}
	idx, ok := fieldIndex[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if value == nil {
		return nil
	}
	field := reflect.ValueOf(&s.event).Elem().Field(idx)
	return assign(field, value)
}

func assign(field reflect.Value, value any) error {
	rv := reflect.ValueOf(value)
	if field.Kind() == reflect.Ptr {
		elemType := field.Type().Elem()
		if !rv.Type().AssignableTo(elemType) {
			return fmt.Errorf("enrich: value of type %s is not assignable to %s", rv.Type(), elemType)
		}
		ptr := reflect.New(elemType)
		ptr.Elem().Set(rv)
		field.Set(ptr)
		return nil
	}
	if !rv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("enrich: value of type %s is not assignable to %s", rv.Type(), field.Type())
	}
	field.Set(rv)
	return nil
}

// GetValue reads back the atomic field named key. ok is false if key is
// unknown or the field is currently unset (nil pointer, zero value for a
// required field that hasn't been assigned yet).
func (s *Scratchpad) GetValue(key string) (any, bool) {
	idx, ok := fieldIndex[key]
	if !ok {
		return nil, false
	}
	field := reflect.ValueOf(&s.event).Elem().Field(idx)
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return nil, false
		}
		return field.Elem().Interface(), true
	}
	if field.IsZero() {
		return nil, false
	}
	return field.Interface(), true
}

// SetShort looks up key in the transformations table and, if found, applies
// its transform function to rawValue and assigns the result onto the
// matching atomic field. Unknown keys are silently ignored: a tracker
// sending a key the enricher doesn't recognise is not itself an error.
func (s *Scratchpad) SetShort(key, rawValue string) error {
	t, ok := transformations[key]
	if !ok {
		return nil
	}
	value, err := t.transform(rawValue)
	if err != nil {
		return fmt.Errorf("enrich: transforming %q: %w", key, err)
	}
	if value == nil {
		return nil
	}
	return s.SetValue(t.field, value)
}

// AddContext attaches a self-describing context, rejecting a second
// context with the same schema.
func (s *Scratchpad) AddContext(ctx atomic.SelfDescribingContext) error {
	if _, dup := s.contexts[ctx.Schema]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateContext, ctx.Schema)
	}
	s.contexts[ctx.Schema] = struct{}{}
	s.event.Contexts = append(s.event.Contexts, ctx)
	return nil
}

// SetEvent assigns the candidate's self-describing event, which may only
// happen once per Scratchpad.
func (s *Scratchpad) SetEvent(ev atomic.SelfDescribingEvent) error {
	if s.eventSet {
		return fmt.Errorf("%w: %s", ErrEventAlreadySet, ev.Schema)
	}
	s.event.Event = ev
	s.eventSet = true
	return nil
}

// GetEvent returns the event assigned so far, if any.
func (s *Scratchpad) GetEvent() (atomic.SelfDescribingEvent, bool) {
	return s.event.Event, s.eventSet
}

// GetContexts returns the contexts attached so far.
func (s *Scratchpad) GetContexts() []atomic.SelfDescribingContext {
	return s.event.Contexts
}

// ToAtomicEvent consumes the scratchpad, composing and validating the
// finished record against the atomic schema. It fails if no event was ever
// assigned, or if the composed record does not satisfy the schema — in
// which case the error lists the offending field paths.
func (s *Scratchpad) ToAtomicEvent() (atomic.AtomicEvent, error) {
	if !s.eventSet {
		return atomic.AtomicEvent{}, ErrEventNotSet
	}
	if s.event.Contexts == nil {
		s.event.Contexts = []atomic.SelfDescribingContext{}
	}

	instance, err := iglu.MarshalRoundTrip(s.event)
	if err != nil {
		return atomic.AtomicEvent{}, fmt.Errorf("enrich: marshalling atomic event: %w", err)
	}
	paths, err := atomicEntry.ValidationErrors(instance)
	if err != nil {
		return atomic.AtomicEvent{}, fmt.Errorf("enrich: validating atomic event: %w", err)
	}
	if len(paths) > 0 {
		return atomic.AtomicEvent{}, fmt.Errorf("%w: invalid fields %s", ErrInvalidAtomic, strings.Join(paths, ", "))
	}

	return s.event, nil
}
