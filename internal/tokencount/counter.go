package tokencount

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Counter measures text size. Implementations never fail; they fall back
// to estimation instead.
type Counter interface {
	Count(text string) int
}

// Chars counts plain characters. The zero value is ready to use.
type Chars struct{}

func (Chars) Count(text string) int { return len(text) }

// Estimator approximates token counts without encoding data: roughly one
// token per CJK rune, one per four bytes of everything else.
type Estimator struct{}

func (Estimator) Count(text string) int {
	cjk := 0
	other := 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other += len(string(r))
		}
	}
	n := cjk + other/4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// Tiktoken counts tokens with a real BPE encoding, initialized lazily
// (the encoding data may be downloaded on first use). Counting falls back
// to the Estimator when initialization fails, so a Counter caller never
// sees an error.
type Tiktoken struct {
	encoding string
	logger   *zap.Logger

	once     sync.Once
	enc      *tiktoken.Tiktoken
	initErr  error
	fallback Estimator
}

// NewTiktoken creates a tiktoken counter for the given encoding (for
// example "cl100k_base" or "o200k_base").
func NewTiktoken(encoding string, logger *zap.Logger) *Tiktoken {
	if logger == nil {
		logger = zap.NewNop()
	}
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &Tiktoken{encoding: encoding, logger: logger}
}

func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// Count returns the token count of text, or the estimator's approximation
// when the encoding is unavailable.
func (t *Tiktoken) Count(text string) int {
	if err := t.init(); err != nil {
		t.logger.Warn("tiktoken unavailable, falling back to estimate", zap.Error(err))
		return t.fallback.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}
