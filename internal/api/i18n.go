package api

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

//go:embed locales/active.*.toml
var localeFS embed.FS

var localeFiles = []string{
	"locales/active.en.toml",
	"locales/active.hi.toml",
	"locales/active.de.toml",
	"locales/active.fr.toml",
	"locales/active.ru.toml",
}

// Messages renders user-facing strings in the visitor's language.
type Messages struct {
	bundle *i18n.Bundle
}

// NewMessages loads the embedded message files. English is the fallback.
func NewMessages() *Messages {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			slog.Error("i18n: failed to load message file", "file", file, "error", err)
		}
	}
	return &Messages{bundle: bundle}
}

// For returns a localizer for r: the ?lang= parameter wins over the
// Accept-Language header.
func (m *Messages) For(r *http.Request) *Localizer {
	return &Localizer{l: i18n.NewLocalizer(m.bundle, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))}
}

// Localizer renders messages for one request.
type Localizer struct {
	l *i18n.Localizer
}

// T renders message id. Unknown ids render as the id itself.
func (lz *Localizer) T(id string, data map[string]any) string {
	msg, err := lz.l.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("i18n: localize failed", "id", id, "error", err)
		return id
	}
	return msg
}

// Lang returns the tag of the language messages are rendered in.
func (lz *Localizer) Lang() string {
	_, tag, err := lz.l.LocalizeWithTag(&i18n.LocalizeConfig{MessageID: "Listen"})
	if err != nil {
		return language.English.String()
	}
	return tag.String()
}

// LanguageOption is a narration language offered on the plant page.
type LanguageOption struct {
	Tag   string
	Label string // the language's own name, e.g. "हिन्दी"
}

// languageOptions labels each configured tag with its native name.
func languageOptions(tags []string) []LanguageOption {
	out := make([]LanguageOption, 0, len(tags))
	for _, t := range tags {
		tag, err := language.Parse(t)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		label := display.Self.Name(language.Make(base.String()))
		if label == "" {
			label = t
		}
		out = append(out, LanguageOption{Tag: t, Label: label})
	}
	return out
}
