// Package translate is the client for the public translation endpoint
// used to narrate plant descriptions in other languages.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultEndpoint is the public gtx translation endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// defaultMaxChunk keeps each request URL well under common length limits.
const defaultMaxChunk = 1800

// ErrTranslation wraps every failure of the gateway: transport errors,
// non-2xx responses and bodies that do not match the expected shape.
var ErrTranslation = errors.New("translation failed")

var shortCodes = map[string]string{
	"hi-in": "hi",
	"de-de": "de",
	"fr-fr": "fr",
	"ru-ru": "ru",
}

// ShortCode maps a spoken-language tag to the gateway's target code.
// Unrecognized tags map to "en".
func ShortCode(tag string) string {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if code, ok := shortCodes[key]; ok {
		return code
	}
	return "en"
}

// Getter performs a GET and returns the body of a 2xx response.
// *request.Client satisfies it.
type Getter interface {
	GetWithHeaders(ctx context.Context, u string, headers map[string]string) ([]byte, error)
}

var requestHeaders = map[string]string{"Accept": "application/json"}

// Client calls the translation endpoint.
type Client struct {
	getter   Getter
	endpoint string
	maxChunk int
}

// NewClient creates a Client. An empty endpoint uses DefaultEndpoint.
func NewClient(g Getter, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{getter: g, endpoint: endpoint, maxChunk: defaultMaxChunk}
}

// Translate translates text into the language identified by shortCode,
// letting the endpoint detect the source language. Long texts are sent in
// sentence-aligned chunks and reassembled in order.
func (c *Client) Translate(ctx context.Context, text, shortCode string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := splitChunks(text, c.maxChunk)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := c.translateChunk(ctx, chunk, shortCode)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) translateChunk(ctx context.Context, text, shortCode string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", shortCode)
	q.Set("dt", "t")
	q.Set("q", text)

	body, err := c.getter.GetWithHeaders(ctx, c.endpoint+"?"+q.Encode(), requestHeaders)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslation, err)
	}
	out, err := ParseResponse(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslation, err)
	}
	return out, nil
}

// ParseResponse extracts the translated text from a gtx response body:
// a JSON array whose first element is a list of segments, each segment a
// list whose first element is the translated fragment. Null fragments are
// skipped; anything else that deviates from this shape is an error.
func ParseResponse(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if len(top) == 0 {
		return "", errors.New("malformed response: empty envelope")
	}

	var segments []json.RawMessage
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("malformed segment list: %w", err)
	}
	if len(segments) == 0 {
		return "", errors.New("malformed response: no segments")
	}

	var b strings.Builder
	for i, raw := range segments {
		var seg []json.RawMessage
		if err := json.Unmarshal(raw, &seg); err != nil || len(seg) == 0 {
			return "", fmt.Errorf("malformed segment %d", i)
		}
		var frag *string
		if err := json.Unmarshal(seg[0], &frag); err != nil {
			return "", fmt.Errorf("malformed fragment in segment %d: %w", i, err)
		}
		if frag != nil {
			b.WriteString(*frag)
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("empty translation")
	}
	return b.String(), nil
}

// splitChunks cuts text at sentence boundaries into pieces of at most max
// bytes. A single sentence longer than max is cut at the last space.
func splitChunks(text string, max int) []string {
	if max <= 0 || len(text) <= max {
		return []string{text}
	}

	var chunks []string
	rest := text
	for len(rest) > max {
		window := rest[:max]
		cut := strings.LastIndex(window, ". ")
		if cut >= 0 {
			cut += 1 // keep the period
		} else if cut = strings.LastIndex(window, " "); cut <= 0 {
			cut = max
			for cut > 1 && !utf8.RuneStart(rest[cut]) {
				cut--
			}
		}
		chunks = append(chunks, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}
