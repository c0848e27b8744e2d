package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"plantguide/pkg/guide"
	"plantguide/pkg/narration"
	"plantguide/pkg/voice"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/plant.html"))

// Guide is the plant service used by the handlers. *guide.Service
// satisfies it.
type Guide interface {
	Plant(id string) (guide.View, bool)
	Plants() []guide.Summary
	Narrate(ctx context.Context, id, lang string) error
	TogglePause() narration.State
	Stop()
	Status() narration.Status
	Voices() []voice.Descriptor
}

// PlantHandler serves the catalog as JSON and as the plant page.
type PlantHandler struct {
	guide     Guide
	msgs      *Messages
	languages []LanguageOption
}

// NewPlantHandler creates a PlantHandler. languages are the narration
// languages offered on the page, as BCP 47 tags.
func NewPlantHandler(g Guide, msgs *Messages, languages []string) *PlantHandler {
	return &PlantHandler{
		guide:     g,
		msgs:      msgs,
		languages: languageOptions(languages),
	}
}

// HandleList handles GET /api/plants
func (h *PlantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.guide.Plants())
}

// HandleGet handles GET /api/plants/{id}
func (h *PlantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, ok := h.guide.Plant(id)
	if !ok {
		writeError(w, http.StatusNotFound, h.msgs.For(r).T("PlantNotFound", map[string]any{"ID": id}))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type pageData struct {
	Lang      string
	Title     string
	Plant     guide.View
	Display   template.HTML
	Details   template.HTML
	Languages []LanguageOption
	Text      map[string]string
}

// HandlePage handles GET /plant/{id}
func (h *PlantHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lz := h.msgs.For(r)

	v, ok := h.guide.Plant(id)
	if !ok {
		http.Error(w, lz.T("PlantNotFound", map[string]any{"ID": id}), http.StatusNotFound)
		return
	}

	data := pageData{
		Lang:  lz.Lang(),
		Title: lz.T("PageTitle", map[string]any{"Name": v.Name}),
		Plant: v,
		// Catalog text is trusted; plain text is escaped by textfmt.
		Display:   template.HTML(v.DisplayHTML),
		Details:   template.HTML(v.DetailsHTML),
		Languages: h.languages,
		Text: map[string]string{
			"Listen":         lz.T("Listen", nil),
			"PauseResume":    lz.T("PauseResume", nil),
			"Stop":           lz.T("Stop", nil),
			"Details":        lz.T("Details", nil),
			"ChooseLanguage": lz.T("ChooseLanguage", nil),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		slog.Error("Failed to render plant page", "id", id, "error", err)
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree static assets: %v", err))
	}
	return http.FileServer(http.FS(sub))
}
