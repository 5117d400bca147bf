package entity

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// CorporatePriorityOptions is the fixed set of corporate priorities a request can support,
// in display order
var CorporatePriorityOptions = []string{
	"Building & Sustaining High-Performance Team",
	"Igniting Sales & Service Culture",
	"Delivering the Best Customer & Employee Experience Possible",
	"Excelling in Bank Transformation",
}

var priorityRank = func() map[string]int {
	rank := make(map[string]int, len(CorporatePriorityOptions))
	for i, p := range CorporatePriorityOptions {
		rank[p] = i
	}
	return rank
}()

// IsCorporatePriority reports whether p is one of the fixed options
func IsCorporatePriority(p string) bool {
	_, ok := priorityRank[p]
	return ok
}

// Priorities is a set of selected corporate priorities
type Priorities []string

// Normalize drops unknown and duplicate entries and orders the rest as in CorporatePriorityOptions
func (p Priorities) Normalize() Priorities {
	seen := make(map[string]bool, len(p))
	out := make(Priorities, 0, len(p))
	for _, v := range p {
		if !IsCorporatePriority(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return priorityRank[out[i]] < priorityRank[out[j]] })
	return out
}

// Unknown returns the entries that are not corporate priorities
func (p Priorities) Unknown() []string {
	var unknown []string
	for _, v := range p {
		if !IsCorporatePriority(v) {
			unknown = append(unknown, v)
		}
	}
	return unknown
}

// Encode serializes the normalized set as a JSON array string. Ampersands
// and angle brackets are stored as written.
func (p Priorities) Encode() string {
	data, err := encodeStrings(p.Normalize())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodePriorities parses the stored form. Anything that is not a JSON array of
// strings decodes to the empty set, and unknown values are dropped.
func DecodePriorities(encoded string) Priorities {
	var raw []string
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return Priorities{}
	}
	return Priorities(raw).Normalize()
}

// MarshalJSON always emits an array, never null
func (p Priorities) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return encodeStrings(p)
}

func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(buf.String(), "\n")), nil
}
