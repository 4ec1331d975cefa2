package document

import (
	"encoding/json"
)

// Attributes carry the layer assignment and user strings of an object.
type Attributes struct {
	values     map[string]string
	keys       []string
	LayerIndex int
}

// NewAttributes returns attributes with no layer assigned.
func NewAttributes() *Attributes {
	return &Attributes{LayerIndex: NoLayer, values: map[string]string{}}
}

// SetUserString sets a user string, replacing any previous value for key.
func (a *Attributes) SetUserString(key, value string) {
	if a.values == nil {
		a.values = map[string]string{}
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// UserString returns the value for key.
func (a *Attributes) UserString(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns user string keys in insertion order.
func (a *Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of user strings.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Clone returns a deep copy. Documents store clones so the caller can keep
// mutating the attributes it passed in.
func (a *Attributes) Clone() *Attributes {
	if a == nil {
		return NewAttributes()
	}
	c := &Attributes{
		LayerIndex: a.LayerIndex,
		keys:       make([]string, len(a.keys)),
		values:     make(map[string]string, len(a.values)),
	}
	copy(c.keys, a.keys)
	for k, v := range a.values {
		c.values[k] = v
	}
	return c
}

type attributesJSON struct {
	Strings    map[string]string `json:"strings"`
	Keys       []string          `json:"keys"`
	LayerIndex int               `json:"layer_index"`
}

// MarshalJSON keeps user string order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(attributesJSON{LayerIndex: a.LayerIndex, Keys: a.keys, Strings: a.values})
}

// UnmarshalJSON restores attributes written by MarshalJSON.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw attributesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Attributes{LayerIndex: raw.LayerIndex, values: map[string]string{}}
	for _, k := range raw.Keys {
		a.SetUserString(k, raw.Strings[k])
	}
	return nil
}
