package sapi

import (
	"testing"

	"github.com/go-ole/go-ole"
)

func TestNewProvider(t *testing.T) {
	p := NewProvider("")
	if p == nil {
		t.Fatal("Expected NewProvider to return a provider")
	}
}

func TestGetVariantIntValues(t *testing.T) {
	v32 := ole.NewVariant(ole.VT_I4, 32)
	if got := getVariantInt(&v32); got != 32 {
		t.Errorf("Expected 32, got %d", got)
	}
}

func TestSAPIRate(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{1.0, 0},
		{0.85, -1},
		{3.0, 10},
		{1.0 / 3, -10},
		{10, 10},
		{0, 0},
	}
	for _, tt := range tests {
		if got := sapiRate(tt.in); got != tt.want {
			t.Errorf("sapiRate(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSAPIVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{1.0, 100},
		{0.5, 50},
		{0, 0},
		{1.5, 100},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := sapiVolume(tt.in); got != tt.want {
			t.Errorf("sapiVolume(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSpeakText(t *testing.T) {
	text, flags := speakText("Family, Rosaceae", 1.0)
	if text != "Family, Rosaceae" || flags != svsfDefault {
		t.Errorf("normal pitch should pass text through, got %q flags %d", text, flags)
	}

	text, flags = speakText("Rock & Roll", 2.0)
	if flags != svsfIsXML {
		t.Errorf("expected XML flag, got %d", flags)
	}
	if text != `<pitch absmiddle="10">Rock &amp; Roll</pitch>` {
		t.Errorf("unexpected XML text %q", text)
	}
}

func TestLCIDToTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"409", "en-US"},
		{"439", "hi-IN"},
		{"4009", "en-IN"},
		{"9;407", "de-DE"},
		{"40C", "fr-FR"},
		{"", ""},
		{"zz", ""},
	}
	for _, tt := range tests {
		if got := lcidToTag(tt.in); got != tt.want {
			t.Errorf("lcidToTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
