// Package indexer batches AI caption analysis over extracted images. It
// drives a providers.CaptionProvider under its rate limit, retries transient
// failures, and keeps suggested titles unique across a whole document.
package indexer

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/Orsso/DocuLens/internal/providers"
)

// Image is one payload submitted for captioning.
type Image struct {
	Name string
	Data []byte
}

// Suggestion is the analysis outcome for one image. Caption is nil when the
// provider failed for that image; Err carries the last error message.
type Suggestion struct {
	File    string             `json:"filename"`
	Caption *providers.Caption `json:"caption,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// Indexer sequences caption requests against a single provider.
type Indexer struct {
	provider providers.CaptionProvider
	limiter  *providers.RateLimiter
	logger   *slog.Logger
}

// New creates an indexer for the given provider.
func New(p providers.CaptionProvider, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		provider: p,
		limiter:  providers.NewRateLimiter(p.RequestsPerSecond()),
		logger:   logger,
	}
}

// Analyze captions each image in order. Failures are per-image: a provider
// error after all retries produces a Suggestion with a nil Caption, and the
// batch continues. Only context cancellation stops the batch early.
func (ix *Indexer) Analyze(ctx context.Context, images []Image) ([]Suggestion, error) {
	out := make([]Suggestion, 0, len(images))

	for _, img := range images {
		if err := ix.limiter.Wait(ctx); err != nil {
			return out, err
		}

		caption, err := ix.caption(ctx, img.Data)
		s := Suggestion{File: img.Name, Caption: caption}
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.Err = err.Error()
			ix.logger.Warn("caption analysis failed",
				"provider", ix.provider.Name(),
				"file", img.Name,
				"error", err)
		} else {
			ix.logger.Debug("caption analysis done",
				"provider", ix.provider.Name(),
				"file", img.Name,
				"title", caption.Title)
		}
		out = append(out, s)
	}

	return out, nil
}

func (ix *Indexer) caption(ctx context.Context, data []byte) (*providers.Caption, error) {
	var caption *providers.Caption

	attempts := ix.provider.MaxRetries()
	if attempts < 1 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			c, err := ix.provider.Caption(ctx, data)
			if err != nil {
				return err
			}
			caption = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(ix.provider.RetryDelayBase()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return caption, nil
}

// numberedTitleRe matches titles that already end in a numeric suffix,
// e.g. "network diagram 3".
var numberedTitleRe = regexp.MustCompile(`^(.+)\s(\d+)$`)

// EnsureUniqueTitles rewrites duplicate suggested titles with " N" suffixes.
// Counters are seeded from existing so numbering stays global across runs:
// with "schema" and "schema 2" already assigned, the next "schema" becomes
// "schema 3". Suggestions without a caption pass through untouched.
func EnsureUniqueTitles(suggestions []Suggestion, existing []string) []Suggestion {
	counts := make(map[string]int)

	for _, name := range existing {
		base := name
		n := 1
		if m := numberedTitleRe.FindStringSubmatch(name); m != nil {
			base = m[1]
			if v, err := strconv.Atoi(m[2]); err == nil {
				n = v
			}
		}
		if n > counts[base] {
			counts[base] = n
		}
	}

	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Caption == nil {
			out = append(out, s)
			continue
		}

		title := strings.TrimSpace(s.Caption.Title)
		if counts[title] > 0 {
			counts[title]++
			title = title + " " + strconv.Itoa(counts[title])
		} else {
			counts[strings.TrimSpace(s.Caption.Title)] = 1
		}

		c := *s.Caption
		c.Title = title
		s.Caption = &c
		out = append(out, s)
	}

	return out
}
