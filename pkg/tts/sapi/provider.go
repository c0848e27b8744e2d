// Package sapi synthesizes speech with the Windows SAPI5 voices installed
// on the machine.
package sapi

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"plantguide/pkg/tts"
	"plantguide/pkg/voice"
)

// SpeechVoiceSpeakFlags
const (
	svsfDefault = 0
	svsfIsXML   = 8
)

// Provider implements tts.Synthesizer using Windows SAPI5 via OLE.
type Provider struct {
	mu           sync.Mutex
	defaultVoice string
}

// NewProvider creates a new SAPI5 provider. An empty defaultVoice keeps
// the system voice.
func NewProvider(defaultVoice string) *Provider {
	return &Provider{defaultVoice: defaultVoice}
}

// Synthesize generates a .wav file using SAPI5.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request, outputPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	spVoice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return "", fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer spVoice.Release()

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = p.defaultVoice
	}
	if voiceID != "" {
		p.setVoiceByID(spVoice, voiceID)
	}
	_, _ = oleutil.PutProperty(spVoice, "Rate", sapiRate(req.Rate))
	_, _ = oleutil.PutProperty(spVoice, "Volume", sapiVolume(req.Volume))

	unknownStream, err := oleutil.CreateObject("SAPI.SpFileStream")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpFileStream: %w", err)
	}
	stream, err := unknownStream.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknownStream.Release()
		return "", fmt.Errorf("QueryInterface SpFileStream failed: %w", err)
	}
	defer stream.Release()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}
	// 3 = SSFMCreateForWrite
	if _, err = oleutil.CallMethod(stream, "Open", fullPath, 3, false); err != nil {
		return "", fmt.Errorf("stream Open failed: %w", err)
	}
	defer func() {
		_, _ = oleutil.CallMethod(stream, "Close")
	}()

	if _, err = oleutil.PutPropertyRef(spVoice, "AudioOutputStream", stream); err != nil {
		return "", fmt.Errorf("failed to set AudioOutputStream: %w", err)
	}

	text, flags := speakText(req.Text, req.Pitch)
	if _, err = oleutil.CallMethod(spVoice, "Speak", text, flags); err != nil {
		tts.Log("SAPI", text, 0, err)
		return "", fmt.Errorf("Speak failed: %w", err)
	}

	tts.Log("SAPI", text, 200, nil)
	return "wav", nil
}

// sapiRate maps a speed factor to SAPI's -10..10 scale, where +10 is
// roughly three times the normal rate.
func sapiRate(factor float64) int {
	if factor <= 0 {
		return 0
	}
	return clamp(int(math.Round(10*math.Log(factor)/math.Log(3))), -10, 10)
}

// sapiVolume maps 0..1 to SAPI's 0..100.
func sapiVolume(v float64) int {
	return clamp(int(math.Round(v*100)), 0, 100)
}

// speakText wraps text in a SAPI XML pitch element when the pitch differs
// from normal and returns the matching Speak flags.
func speakText(text string, pitch float64) (string, int) {
	if pitch <= 0 || pitch == 1 {
		return text, svsfDefault
	}
	middle := clamp(int(math.Round(10*math.Log2(pitch))), -10, 10)
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(text)
	return fmt.Sprintf("<pitch absmiddle=\"%d\">%s</pitch>", middle, escaped), svsfIsXML
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Voices lists installed SAPI voices.
func (p *Provider) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	spVoice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer spVoice.Release()

	// GetVoices returns ISpeechObjectTokens.
	tokensVar, err := oleutil.CallMethod(spVoice, "GetVoices")
	if err != nil {
		tokensVar, err = oleutil.GetProperty(spVoice, "Voices")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	countVar, err := oleutil.GetProperty(tokens, "Count")
	if err != nil {
		return nil, fmt.Errorf("GetVoices Count failed: %w", err)
	}
	count := getVariantInt(countVar)

	var voices []voice.Descriptor
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		if d, ok := describeToken(item); ok {
			voices = append(voices, d)
		}
		return nil
	})

	if len(voices) == 0 {
		voices = fallbackManualEnum(tokens, count)
	}
	return voices, nil
}

func getVariantInt(v *ole.VARIANT) int {
	val := v.Value()
	if val == nil {
		return int(v.Val)
	}
	switch it := val.(type) {
	case int32:
		return int(it)
	case int64:
		return int(it)
	case int:
		return it
	case uint32:
		return int(it)
	default:
		return int(v.Val)
	}
}

// describeToken reads id, description and language from a voice token.
func describeToken(item *ole.IDispatch) (voice.Descriptor, bool) {
	idVar, idErr := oleutil.CallMethod(item, "GetId")
	descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))
	if idErr != nil || descErr != nil || idVar == nil || descVar == nil {
		return voice.Descriptor{}, false
	}

	d := voice.Descriptor{
		ID:   idVar.ToString(),
		Name: descVar.ToString(),
	}
	if langVar, err := oleutil.CallMethod(item, "GetAttribute", "Language"); err == nil && langVar != nil {
		d.Language = lcidToTag(langVar.ToString())
	}
	return d, true
}

func fallbackManualEnum(tokens *ole.IDispatch, count int) []voice.Descriptor {
	var voices []voice.Descriptor
	for i := 0; i < count; i++ {
		itemVar, err := oleutil.GetProperty(tokens, "Item", i)
		if err != nil {
			itemVar, err = oleutil.CallMethod(tokens, "Item", i)
		}
		if err != nil {
			continue
		}
		item := itemVar.ToIDispatch()
		if item == nil {
			continue
		}
		if d, ok := describeToken(item); ok {
			voices = append(voices, d)
		}
		item.Release()
	}
	return voices
}

// Windows locale ids of the languages the guide narrates in.
var lcidTags = map[uint64]string{
	0x0409: "en-US",
	0x0809: "en-GB",
	0x4009: "en-IN",
	0x0439: "hi-IN",
	0x0407: "de-DE",
	0x040c: "fr-FR",
	0x0419: "ru-RU",
}

// lcidToTag converts a SAPI "Language" attribute (hex LCIDs separated by
// semicolons, e.g. "409;9") to a BCP 47 tag using the first known id.
func lcidToTag(attr string) string {
	for _, part := range strings.Split(attr, ";") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 16, 32)
		if err != nil {
			continue
		}
		if tag, ok := lcidTags[id]; ok {
			return tag
		}
	}
	return ""
}

func (p *Provider) setVoiceByID(spVoice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(spVoice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(spVoice, "Voice", item)
		}
		return nil
	})
}
