// Package providers holds the AI captioning clients. Each provider takes an
// image and suggests a short human-readable title plus descriptive tags for
// it; the indexer package sequences and deduplicates the suggestions.
package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// Caption is one provider suggestion for an image.
type Caption struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// CaptionProvider suggests captions for raster images.
type CaptionProvider interface {
	// Name returns the provider identifier (e.g. "mistral").
	Name() string

	// Caption analyzes one image. Implementations must honor ctx.
	Caption(ctx context.Context, img []byte) (*Caption, error)

	// Rate limiting and retry properties, consumed by the indexer.
	RequestsPerSecond() float64
	MaxRetries() int
	RetryDelayBase() time.Duration
}

const (
	maxCaptionTitleWords = 2
	maxCaptionTags       = 3

	// uploadMaxDim bounds the longest side of the image sent to a
	// provider; larger images are thumbnailed first.
	uploadMaxDim = 1024

	uploadJPEGQuality = 85
)

// captionSystemPrompt instructs the model to answer with bare JSON only.
const captionSystemPrompt = `You are an expert at analyzing technical images and document figures.
Analyze the image and return exactly this information as JSON:

1. A descriptive title of at most 2 words
2. Three descriptive tags in #tag form

MANDATORY RESPONSE (raw JSON, no markdown):
{"title": "two words", "tags": ["#tag1", "#tag2", "#tag3"]}

Return only the raw JSON object, with no markdown fences and no explanatory text.`

const captionUserPrompt = "Analyze this image and provide the title and tags in the specified JSON format."

// prepareImage thumbnails the payload to fit uploadMaxDim and re-encodes it
// as JPEG, returning a data URI suitable for a chat-completions image part.
func prepareImage(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image for captioning: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > uploadMaxDim || h > uploadMaxDim {
		scale := float64(uploadMaxDim) / float64(w)
		if h > w {
			scale = float64(uploadMaxDim) / float64(h)
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: uploadJPEGQuality}); err != nil {
		return "", fmt.Errorf("encoding image for captioning: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// parseCaption extracts a Caption from a model response. Models sometimes
// wrap the JSON in markdown fences despite instructions, so a fenced
// payload gets one recovery attempt.
func parseCaption(content string) (*Caption, error) {
	content = strings.TrimSpace(content)

	var c Caption
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		stripped := stripFences(content)
		if err2 := json.Unmarshal([]byte(stripped), &c); err2 != nil {
			return nil, fmt.Errorf("parsing caption response: %w", err)
		}
	}
	if c.Title == "" || len(c.Tags) == 0 {
		return nil, fmt.Errorf("caption response missing title or tags")
	}

	words := strings.Fields(c.Title)
	if len(words) > maxCaptionTitleWords {
		words = words[:maxCaptionTitleWords]
	}
	c.Title = strings.Join(words, " ")

	if len(c.Tags) > maxCaptionTags {
		c.Tags = c.Tags[:maxCaptionTags]
	}
	for i, tag := range c.Tags {
		tag = strings.TrimSpace(tag)
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		c.Tags[i] = strings.ToLower(tag)
	}
	return &c, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
