package metadata

import (
	"mediacat/fault"
	"time"
)

// Envelope gives override-first access to the metadata of one media
type Envelope struct {
	c *Columns
}

func EnvelopeOf(c *Columns) Envelope {
	return Envelope{c: c}
}

func lookup(key string) (*Field, error) {
	f, ok := fieldsByKey[key]
	if !ok {
		return nil, fault.ValidationFailure.New(fault.Args{"field": key, "reason": "unknown metadata field"})
	}
	return f, nil
}

// Get returns the override if set, else the imported value
func (e Envelope) Get(key string) (any, error) {
	f, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return e.effective(f), nil
}

func (e Envelope) effective(f *Field) any {
	if v := f.overridden.get(e.c); v != nil {
		return v
	}
	return f.media.get(e.c)
}

// Imported returns the value set by the last import
func (e Envelope) Imported(key string) (any, error) {
	f, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return f.media.get(e.c), nil
}

// Set stores v as the override of key, nil clears it
func (e Envelope) Set(key string, v any) error {
	f, err := lookup(key)
	if err != nil {
		return err
	}
	value, err := f.Coerce(v)
	if err != nil {
		return err
	}
	f.overridden.set(e.c, value)
	return nil
}

// Serialize emits the effective value of every field, datetimes in DateTimeFormat
func (e Envelope) Serialize() map[string]any {
	result := make(map[string]any, len(Fields))
	for _, f := range Fields {
		v := e.effective(f)
		if t, ok := v.(time.Time); ok {
			v = FormatDateTime(t)
		}
		result[f.Key] = v
	}
	return result
}

// Deserialize sets every key of values as an override. Nothing is changed
// when one of them is invalid.
func (e Envelope) Deserialize(values map[string]any) error {
	coerced := make(map[*Field]any, len(values))
	for key, v := range values {
		f, err := lookup(key)
		if err != nil {
			return err
		}
		value, err := f.Coerce(v)
		if err != nil {
			return err
		}
		coerced[f] = value
	}
	for f, value := range coerced {
		f.overridden.set(e.c, value)
	}
	return nil
}
