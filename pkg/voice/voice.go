// Package voice describes narration voices and picks one for a language.
package voice

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Descriptor is one voice offered by a narration engine.
type Descriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"` // BCP 47 tag, e.g. "hi-IN"
	Neural   bool   `json:"neural"`
}

// Inventory is a read-mostly snapshot of the available voices.
// Updates replace the whole snapshot; readers never see a partial list.
type Inventory struct {
	snap atomic.Pointer[[]Descriptor]
}

// Replace stores a copy of voices as the new snapshot.
func (i *Inventory) Replace(voices []Descriptor) {
	cp := append([]Descriptor(nil), voices...)
	i.snap.Store(&cp)
}

// Voices returns the current snapshot. Callers must not modify it.
func (i *Inventory) Voices() []Descriptor {
	p := i.snap.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Len returns the number of voices in the snapshot.
func (i *Inventory) Len() int {
	return len(i.Voices())
}

// Selector picks voices. Markers are name fragments (e.g. "Neural") that
// mark a voice as preferred in addition to its Neural flag.
type Selector struct {
	Markers []string
}

// Select returns the best voice for tag, or nil to use the engine default.
// Order: exact tag and preferred, exact tag, same base language.
func (s Selector) Select(voices []Descriptor, tag string) *Descriptor {
	var exact, base *Descriptor
	wantBase, ok := baseOf(tag)

	for i := range voices {
		v := &voices[i]
		if sameTag(v.Language, tag) {
			if s.preferred(v) {
				return v
			}
			if exact == nil {
				exact = v
			}
			continue
		}
		if base == nil && ok {
			if b, vok := baseOf(v.Language); vok && b == wantBase {
				base = v
			}
		}
	}

	if exact != nil {
		return exact
	}
	return base
}

func (s Selector) preferred(v *Descriptor) bool {
	if v.Neural {
		return true
	}
	for _, m := range s.Markers {
		if m != "" && strings.Contains(v.Name, m) {
			return true
		}
	}
	return false
}

// sameTag compares tags case-insensitively and treats '_' like '-'.
func sameTag(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	}
	return a != "" && norm(a) == norm(b)
}

// baseOf returns the base language subtag of tag ("en" for "en-IN").
func baseOf(tag string) (language.Base, bool) {
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return language.Base{}, false
	}
	b, conf := t.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return b, true
}

// Base returns the base language subtag of tag, or "" if tag does not parse.
func Base(tag string) string {
	b, ok := baseOf(tag)
	if !ok {
		return ""
	}
	return b.String()
}
