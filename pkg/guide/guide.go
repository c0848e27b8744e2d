// Package guide ties the catalog, the text formatter and the narration
// controller together for the presentation layer.
package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"plantguide/pkg/catalog"
	"plantguide/pkg/narration"
	"plantguide/pkg/textfmt"
	"plantguide/pkg/voice"
)

// ErrNotFound is returned for plant ids missing from the catalog.
var ErrNotFound = errors.New("plant not found")

// Narrator is the narration control surface. *narration.Controller
// satisfies it.
type Narrator interface {
	Start(ctx context.Context, req narration.Request) error
	TogglePause() narration.State
	Stop()
	Snapshot() narration.Status
	Voices() []voice.Descriptor
}

// View is a plant prepared for display and narration.
type View struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DisplayHTML  string   `json:"display_html"`
	DisplayLines []string `json:"display_lines"`
	DetailsHTML  string   `json:"details_html,omitempty"`
	Narration    string   `json:"narration"`
}

// Summary is a catalog listing entry.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source is the catalog lookup. Both *catalog.Catalog and *catalog.Store
// satisfy it.
type Source interface {
	Find(id string) (catalog.Plant, bool)
	IDs() []string
}

// Service serves plant views and narration requests.
type Service struct {
	catalog  Source
	format   *textfmt.Formatter
	narrator Narrator
}

// New creates a Service.
func New(c Source, f *textfmt.Formatter, n Narrator) *Service {
	if f == nil {
		f = textfmt.Default()
	}
	return &Service{catalog: c, format: f, narrator: n}
}

// Plant returns the view for id, or false if the id is unknown.
func (s *Service) Plant(id string) (View, bool) {
	p, ok := s.catalog.Find(id)
	if !ok {
		return View{}, false
	}
	return View{
		ID:           p.ID,
		Name:         p.Name,
		DisplayHTML:  textfmt.Display(p.Description),
		DisplayLines: textfmt.DisplayLines(p.Description),
		DetailsHTML:  textfmt.Display(p.Details),
		Narration:    s.format.Narration(narrationSource(p)),
	}, true
}

// narrationSource picks the text to read aloud: the description, or the
// details when the description is empty.
func narrationSource(p catalog.Plant) string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	return p.Details
}

// Plants lists the catalog in id order.
func (s *Service) Plants() []Summary {
	ids := s.catalog.IDs()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		p, ok := s.catalog.Find(id)
		if !ok {
			continue // removed by a concurrent reload
		}
		out = append(out, Summary{ID: p.ID, Name: p.Name})
	}
	return out
}

// Narrate reads the plant's description aloud in lang.
func (s *Service) Narrate(ctx context.Context, id, lang string) error {
	v, ok := s.Plant(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.narrator.Start(ctx, narration.Request{Text: v.Narration, Language: lang})
}

// TogglePause pauses or resumes the current narration.
func (s *Service) TogglePause() narration.State {
	return s.narrator.TogglePause()
}

// Stop ends the current narration.
func (s *Service) Stop() {
	s.narrator.Stop()
}

// Status reports the narration state.
func (s *Service) Status() narration.Status {
	return s.narrator.Snapshot()
}

// Voices returns the voices known to the narrator.
func (s *Service) Voices() []voice.Descriptor {
	return s.narrator.Voices()
}
