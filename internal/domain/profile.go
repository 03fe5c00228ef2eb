package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports a user document that cannot be used for matching.
// Loosely-typed documents are validated here, at the store boundary, instead
// of letting missing fields flow into the scorer.
type SchemaError struct {
	Collection string
	DocID      string
	Field      string
	Reason     string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s/%s field %q: %s", e.Collection, e.DocID, e.Field, e.Reason)
}

// UserProfile is the matching-relevant slice of a user document. Owned by the
// account system; read-only to the pipeline.
type UserProfile struct {
	ID                 string
	Active             bool
	SearchKeywords     []string
	SeniorityLevels    []Seniority
	PreferredLocations []string
	MinMatchScore      int // 0..100
}

// WantsSeniority reports set membership of s in SeniorityLevels.
func (p UserProfile) WantsSeniority(s Seniority) bool {
	for _, lvl := range p.SeniorityLevels {
		if lvl == s {
			return true
		}
	}
	return false
}

// ProfileFromDoc validates and normalizes a raw user document.
// searchKeywords is required and must be non-empty; everything else gets a
// usable default so scoring never sees nil.
func ProfileFromDoc(id string, doc map[string]any) (UserProfile, error) {
	p := UserProfile{ID: id}

	schemaErr := func(field, reason string) error {
		return &SchemaError{Collection: "users", DocID: id, Field: field, Reason: reason}
	}

	if v, ok := doc["active"]; ok {
		b, ok := v.(bool)
		if !ok {
			return p, schemaErr("active", "expected bool")
		}
		p.Active = b
	}

	kws, err := stringList(doc["searchKeywords"])
	if err != nil {
		return p, schemaErr("searchKeywords", err.Error())
	}
	if len(kws) == 0 {
		return p, schemaErr("searchKeywords", "required and non-empty")
	}
	p.SearchKeywords = kws

	locs, err := stringList(doc["preferredLocations"])
	if err != nil {
		return p, schemaErr("preferredLocations", err.Error())
	}
	p.PreferredLocations = locs

	lvls, err := stringList(doc["seniorityLevels"])
	if err != nil {
		return p, schemaErr("seniorityLevels", err.Error())
	}
	for _, lv := range lvls {
		s, err := ParseSeniority(lv)
		if err != nil {
			return p, schemaErr("seniorityLevels", err.Error())
		}
		p.SeniorityLevels = append(p.SeniorityLevels, s)
	}

	min, err := intField(doc["minMatchScore"], 0)
	if err != nil {
		return p, schemaErr("minMatchScore", err.Error())
	}
	if min < 0 || min > 100 {
		return p, schemaErr("minMatchScore", "must be 0..100")
	}
	p.MinMatchScore = min

	return p, nil
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	var out []string
	switch xs := v.(type) {
	case []string:
		out = append(out, xs...)
	case []any:
		for _, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("expected list of strings, got %T element", x)
			}
			out = append(out, s)
		}
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
	var ys []string
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			ys = append(ys, s)
		}
	}
	return ys, nil
}

func intField(v any, def int) (int, error) {
	switch n := v.(type) {
	case nil:
		return def, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
