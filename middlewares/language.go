package middlewares

import (
	"golang.org/x/text/language"

	"github.com/dmitrymomot/loom/internal"
)

// Default sources for an explicit language choice.
const (
	DefaultLanguageParam  = "lang"
	DefaultLanguageCookie = "lang"
)

// LanguageConfig configures the language middleware.
type LanguageConfig struct {
	// Extractor locates an explicit language choice before the
	// Accept-Language header is consulted. Defaults to the "lang" query
	// parameter, then the "lang" cookie.
	Extractor internal.Extractor

	extractorSet bool
}

// LanguageOption configures LanguageConfig.
type LanguageOption func(*LanguageConfig)

// WithLanguageExtractor sets a custom source chain for the explicit
// language choice.
func WithLanguageExtractor(ext internal.Extractor) LanguageOption {
	return func(cfg *LanguageConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// Language returns middleware that resolves the request language against
// the supported list and stores it under the context language key, where
// c.Language() reads it.
//
// Resolution order: an explicit choice from the extractor chain (query
// parameter, cookie), then Accept-Language matching, then the first
// supported language. Matching tolerates region variants in both
// directions: a supported "en" serves an "en-US" request and vice versa.
//
// Supported tags are parsed at construction; an invalid tag panics, as
// it is a configuration mistake on the level of a bad route pattern.
func Language(supported []string, opts ...LanguageOption) internal.Middleware {
	if len(supported) == 0 {
		panic("middlewares: Language requires at least one supported language")
	}

	tags := make([]language.Tag, len(supported))
	for i, s := range supported {
		tags[i] = language.MustParse(s)
	}
	matcher := language.NewMatcher(tags)

	cfg := &LanguageConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(
			internal.FromQuery(DefaultLanguageParam),
			internal.FromCookie(DefaultLanguageCookie),
		)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			lang := supported[0]

			if explicit, ok := cfg.Extractor.Extract(c); ok {
				if resolved, ok := matchOne(matcher, supported, explicit); ok {
					lang = resolved
				}
			} else if header := c.Header("Accept-Language"); header != "" {
				if requested, _, err := language.ParseAcceptLanguage(header); err == nil && len(requested) > 0 {
					if _, idx, conf := matcher.Match(requested...); conf > language.No {
						lang = supported[idx]
					}
				}
			}

			c.Set(internal.LanguageKey{}, lang)
			return next(c)
		}
	}
}

// matchOne resolves a single raw tag against the supported list.
func matchOne(matcher language.Matcher, supported []string, raw string) (string, bool) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	if _, idx, conf := matcher.Match(tag); conf > language.No {
		return supported[idx], true
	}
	return "", false
}
