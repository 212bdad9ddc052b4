// Package document holds the typed page documents and the normalizers that
// build them from untrusted JSON. Every function here is pure: no I/O, no
// clock, no shared state.
package document

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind identifies one of the three page document shapes.
type Kind string

const (
	KindProposal Kind = "proposal"
	KindProgress Kind = "progress"
	KindMeta     Kind = "meta"
)

var ErrUnknownKind = errors.New("unknown document kind")

// Document is implemented by Proposal, Progress and Meta.
type Document interface {
	Kind() Kind
	// Available reports whether the document has enough content to be
	// shown publicly in its language.
	Available() bool
}

// Normalize canonicalizes input into the document shape for kind. Input may
// be nil, a JSON string, raw JSON bytes, a decoded map, or an already typed
// document. Malformed input degrades to the empty template.
func Normalize(kind Kind, input any) (Document, error) {
	switch kind {
	case KindProposal:
		return NormalizeProposal(input), nil
	case KindProgress:
		return NormalizeProgress(input), nil
	case KindMeta:
		return NormalizeMeta(input), nil
	default:
		return nil, ErrUnknownKind
	}
}

// Empty returns the seed template for kind.
func Empty(kind Kind) (Document, error) {
	switch kind {
	case KindProposal:
		return EmptyProposal(), nil
	case KindProgress:
		return EmptyProgress(), nil
	case KindMeta:
		return EmptyMeta(), nil
	default:
		return nil, ErrUnknownKind
	}
}

// Title returns the headline a dashboard shows for doc: the hero title of a
// proposal, the client name otherwise.
func Title(doc Document) string {
	switch d := doc.(type) {
	case Proposal:
		return strings.TrimSpace(d.Hero.Title)
	case Progress:
		return strings.TrimSpace(d.Client.Name)
	case Meta:
		return strings.TrimSpace(d.Client.Name)
	default:
		return ""
	}
}

// Marshal encodes a normalized document for storage.
func Marshal(doc Document) string {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(payload)
}

// object is a decoded JSON object. Lookups on a nil object behave like
// lookups on an empty one.
type object map[string]any

// decodeObject turns the accepted input forms into a JSON object. The second
// return is false when the input is empty, unparsable, or not an object.
func decodeObject(input any) (object, bool) {
	var raw []byte
	switch value := input.(type) {
	case nil:
		return nil, false
	case object:
		return value, value != nil
	case map[string]any:
		return object(value), value != nil
	case string:
		if value == "" {
			return nil, false
		}
		raw = []byte(value)
	case []byte:
		raw = value
	case json.RawMessage:
		raw = value
	case *string:
		if value == nil {
			return nil, false
		}
		return decodeObject(*value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		raw = encoded
	}
	if len(raw) == 0 {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, false
	}
	return object(obj), true
}

func (o object) has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o[key]
	return ok
}

func (o object) get(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

func (o object) child(key string) object {
	return asObject(o.get(key))
}

func (o object) str(key string) string {
	return stringValue(o.get(key))
}

func asObject(value any) object {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return object(obj)
}

func asArray(value any) ([]any, bool) {
	items, ok := value.([]any)
	return items, ok
}

func stringValue(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return s
}

func stringArray(value any) []string {
	items, _ := asArray(value)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringValue(item))
	}
	return out
}

// truthy follows JSON truthiness: false, 0, "", null and absence are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
