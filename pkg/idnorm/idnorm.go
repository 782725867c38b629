// Package idnorm turns the many shapes a user reference has been stored in
// (bare strings, native UUIDs, {"_id": ...} and {"id": ...} objects) into one
// canonical lowercase UUID string.
package idnorm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/jsonutil"
)

// maxDepth bounds how far nested {"_id": {"id": ...}} wrappers are followed.
const maxDepth = 4

// Normalize returns the canonical string form of a user reference.
// ok is false when v is nil, empty or not parseable as a UUID; such
// references are dropped by callers. Normalize never panics.
func Normalize(v any) (string, bool) {
	return normalize(v, 0)
}

func normalize(v any, depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}

	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return parseString(val)
	case *string:
		if val == nil {
			return "", false
		}
		return parseString(*val)
	case uuid.UUID:
		if val == uuid.Nil {
			return "", false
		}
		return val.String(), true
	case *uuid.UUID:
		if val == nil {
			return "", false
		}
		return normalize(*val, depth)
	case [16]byte:
		return normalize(uuid.UUID(val), depth)
	case []byte:
		// Byte slices are text; binary IDs arrive as [16]byte.
		return parseString(string(val))
	case json.RawMessage:
		return normalizeRaw(val, depth)
	case map[string]any:
		if inner, ok := val["_id"]; ok {
			return normalize(inner, depth+1)
		}
		if inner, ok := val["id"]; ok {
			return normalize(inner, depth+1)
		}
		return "", false
	case fmt.Stringer:
		return parseString(val.String())
	default:
		return "", false
	}
}

func normalizeRaw(raw json.RawMessage, depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}

	if strings.HasPrefix(trimmed, "{") {
		if inner, ok := jsonutil.ObjectField(raw, "_id"); ok {
			return normalizeRaw(inner, depth+1)
		}
		if inner, ok := jsonutil.ObjectField(raw, "id"); ok {
			return normalizeRaw(inner, depth+1)
		}
		// Extended-JSON ObjectId form {"$oid": "..."}
		if inner, ok := jsonutil.ObjectField(raw, "$oid"); ok {
			return normalizeRaw(inner, depth+1)
		}
		return "", false
	}

	return parseString(jsonutil.FlexibleStringValue(raw))
}

func parseString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return "", false
	}
	return id.String(), true
}

// NormalizeAll normalizes every element of refs, dropping those that fail and
// removing duplicates while preserving first-seen order.
func NormalizeAll(refs []json.RawMessage) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		id, ok := normalizeRaw(r, 0)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Set is an insertion-ordered set of canonical IDs.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add normalizes v and inserts it. It reports whether a new ID was added.
func (s *Set) Add(v any) bool {
	id, ok := Normalize(v)
	if !ok {
		return false
	}
	if _, dup := s.index[id]; dup {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether v's canonical form is in the set.
func (s *Set) Contains(v any) bool {
	id, ok := Normalize(v)
	if !ok {
		return false
	}
	_, found := s.index[id]
	return found
}

// Len returns the number of IDs in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// IDs returns the IDs in insertion order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// UUIDs returns the IDs parsed as uuid.UUID, in insertion order.
func (s *Set) UUIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, uuid.MustParse(id))
	}
	return out
}
