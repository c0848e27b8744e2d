// Package edgetts synthesizes speech through the Microsoft Edge read-aloud
// websocket service.
package edgetts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"plantguide/pkg/tracker"
	"plantguide/pkg/tts"
	"plantguide/pkg/voice"
)

const providerName = "edge-tts"

// DefaultVoice is used when neither the request nor the config names one.
const DefaultVoice = "en-IN-NeerjaNeural"

var voices = []voice.Descriptor{
	{ID: "en-IN-NeerjaNeural", Name: "Neerja (India)", Language: "en-IN", Neural: true},
	{ID: "en-IN-PrabhatNeural", Name: "Prabhat (India)", Language: "en-IN", Neural: true},
	{ID: "hi-IN-SwaraNeural", Name: "Swara (Hindi)", Language: "hi-IN", Neural: true},
	{ID: "hi-IN-MadhurNeural", Name: "Madhur (Hindi)", Language: "hi-IN", Neural: true},
	{ID: "de-DE-KatjaNeural", Name: "Katja (Germany)", Language: "de-DE", Neural: true},
	{ID: "de-DE-ConradNeural", Name: "Conrad (Germany)", Language: "de-DE", Neural: true},
	{ID: "fr-FR-DeniseNeural", Name: "Denise (France)", Language: "fr-FR", Neural: true},
	{ID: "fr-FR-HenriNeural", Name: "Henri (France)", Language: "fr-FR", Neural: true},
	{ID: "ru-RU-SvetlanaNeural", Name: "Svetlana (Russia)", Language: "ru-RU", Neural: true},
	{ID: "ru-RU-DmitryNeural", Name: "Dmitry (Russia)", Language: "ru-RU", Neural: true},
	{ID: "en-US-AvaMultilingualNeural", Name: "Ava (Multilingual)", Language: "en-US", Neural: true},
}

// Provider implements tts.Synthesizer for Microsoft Edge TTS.
type Provider struct {
	tracker      *tracker.Tracker
	defaultVoice string
}

// NewProvider creates a new Edge TTS provider. An empty defaultVoice
// uses DefaultVoice.
func NewProvider(t *tracker.Tracker, defaultVoice string) *Provider {
	if defaultVoice == "" {
		defaultVoice = DefaultVoice
	}
	return &Provider{tracker: t, defaultVoice: defaultVoice}
}

// Synthesize generates an .mp3 file using Edge TTS.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request, outputPath string) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("text is required")
	}
	if req.VoiceID == "" {
		req.VoiceID = p.defaultVoice
	}

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".mp3") {
		fullPath += ".mp3"
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	conn, err := p.dial(ctx)
	if err != nil {
		p.trackFailure()
		return "", err
	}
	defer conn.Close()

	// Unblock ReadMessage when the utterance is canceled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := p.sendConfig(conn); err != nil {
		return "", err
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := p.sendSSML(conn, req, requestID); err != nil {
		return "", err
	}

	if err := p.consumeResponses(ctx, conn, file); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		p.trackFailure()
		return "", err
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName)
	}
	return "mp3", nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackAPIFailure(providerName)
	}
}

// endpoint holds the EDGE_TTS_* parameters, usually loaded from .env.
type endpoint struct {
	origin    string
	userAgent string
	token     string
	version   string
	baseURL   string
}

func endpointFromEnv() (endpoint, error) {
	ep := endpoint{
		origin:    os.Getenv("EDGE_TTS_ORIGIN"),
		userAgent: os.Getenv("EDGE_TTS_USER_AGENT"),
		token:     os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN"),
		version:   os.Getenv("EDGE_TTS_SEC_MS_GEC_VERSION"),
		baseURL:   os.Getenv("EDGE_TTS_BASE_URL"),
	}
	for name, v := range map[string]string{
		"EDGE_TTS_ORIGIN":               ep.origin,
		"EDGE_TTS_USER_AGENT":           ep.userAgent,
		"EDGE_TTS_TRUSTED_CLIENT_TOKEN": ep.token,
		"EDGE_TTS_SEC_MS_GEC_VERSION":   ep.version,
		"EDGE_TTS_BASE_URL":             ep.baseURL,
	} {
		if v == "" {
			return endpoint{}, fmt.Errorf("%s environment variable is required", name)
		}
	}
	return ep, nil
}

// Configured reports whether the EDGE_TTS_* environment is complete.
func Configured() error {
	_, err := endpointFromEnv()
	return err
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	ep, err := endpointFromEnv()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Origin", ep.origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", ep.userAgent)
	header.Set("Accept-Language", "en-US,en;q=0.9")

	// MUID Cookie
	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	url := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		ep.baseURL, ep.token, generateSecMSGec(ep.token, time.Now()), ep.version)

	var conn *websocket.Conn
	var dialErr error
	for i := 0; i < 3; i++ {
		var resp *http.Response
		conn, resp, dialErr = websocket.DefaultDialer.DialContext(ctx, url, header)
		if dialErr == nil {
			return conn, nil
		}
		if resp != nil {
			slog.Warn("EdgeTTS: handshake failure", "status", resp.Status, "status_code", resp.StatusCode)
			if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
				return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("edge-tts handshake rejected: %s", resp.Status))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// generateSecMSGec derives the Sec-MS-GEC token: Windows file-time ticks
// rounded down to five minutes, hashed together with the client token.
func generateSecMSGec(trustedClientToken string, now time.Time) string {
	ticks := float64(now.Unix()) + 11644473600
	ticks -= float64(int64(ticks) % 300)
	ticks *= 1e7

	strToHash := fmt.Sprintf("%.0f%s", ticks, trustedClientToken)

	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (p *Provider) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"audio-24khz-48kbitrate-mono-mp3\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (p *Provider) sendSSML(conn *websocket.Conn, req tts.Request, requestID string) error {
	ssml := buildSSML(req)
	tts.Log("EDGETTS", ssml, 0, nil)

	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func buildSSML(req tts.Request) string {
	lang := req.Language
	if lang == "" {
		lang = "en-IN"
	}
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'>"+
		"<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>",
		ssmlEscaper.Replace(lang),
		ssmlEscaper.Replace(req.VoiceID),
		tts.RelativePercent(req.Pitch),
		tts.RelativePercent(req.Rate),
		tts.RelativePercent(req.Volume),
		ssmlEscaper.Replace(req.Text))
}

func (p *Provider) consumeResponses(ctx context.Context, conn *websocket.Conn, file *os.File) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		case websocket.BinaryMessage:
			if err := handleBinaryMessage(data, file); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// handleBinaryMessage writes the audio payload that follows the
// big-endian header length prefix.
func handleBinaryMessage(data []byte, file *os.File) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := file.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}

// Voices returns the neural voices offered for the guide's languages.
func (p *Provider) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	return append([]voice.Descriptor(nil), voices...), nil
}
