// Package dialect detects which chat-export format a payload uses and
// converts it into the canonical conversation model.
package dialect

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chatvault/internal/conversation"
)

// Dialect identifies a supported export format.
type Dialect string

const (
	// ChatGPT is the OpenAI ChatGPT conversation export.
	ChatGPT Dialect = "chatgpt"
	// Claude is the Anthropic Claude conversation export.
	Claude Dialect = "claude"
)

var (
	// ErrUnsupportedFormat is returned when no detection rule matches a payload.
	ErrUnsupportedFormat = errors.New("unsupported export format; expected ChatGPT or Claude JSON")
	// ErrMalformedPayload is returned when a payload does not have the shape its dialect requires.
	ErrMalformedPayload = errors.New("malformed payload")
)

// Normalizer converts a decoded export payload of one dialect into canonical threads.
type Normalizer interface {
	// Dialect returns the dialect this normalizer understands.
	Dialect() Dialect
	// Platform returns the platform display name recorded for imported threads.
	Platform() string
	// Normalize converts the payload. Errors wrap ErrMalformedPayload.
	Normalize(payload map[string]any) (*conversation.Import, error)
}

// Options configures normalization.
type Options struct {
	// Location is applied to timestamps that carry no zone designator. Defaults to UTC.
	Location *time.Location
	// Now supplies the fallback time for threads without any timestamp. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// normalizers maps every supported dialect to its implementation.
var normalizers = map[Dialect]func(Options) Normalizer{
	ChatGPT: func(opts Options) Normalizer { return &ChatGPTNormalizer{opts: opts} },
	Claude:  func(opts Options) Normalizer { return &ClaudeNormalizer{opts: opts} },
}

// Dialects returns all supported dialects in a fixed order.
func Dialects() []Dialect {
	return []Dialect{ChatGPT, Claude}
}

// NormalizerFor returns the normalizer for d.
func NormalizerFor(d Dialect, opts Options) (Normalizer, error) {
	factory, ok := normalizers[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(d))
	}
	return factory(opts.withDefaults()), nil
}

// ParseDialect resolves a user-supplied dialect name such as a CLI hint.
func ParseDialect(name string) (Dialect, error) {
	candidate := Dialect(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := normalizers[candidate]; !ok {
		return "", fmt.Errorf("unknown platform %q (supported: chatgpt, claude)", name)
	}
	return candidate, nil
}

// String implements fmt.Stringer.
func (d Dialect) String() string {
	return string(d)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}
