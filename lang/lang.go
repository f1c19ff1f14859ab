package lang

import (
	"context"
	"regexp"
	"strings"
)

type ctxKey struct{}

// Default is the reply language used when none is known or supported.
const Default = "en"

// WithLanguage attaches the requester's language to ctx.
func WithLanguage(ctx context.Context, language string) context.Context {
	return context.WithValue(ctx, ctxKey{}, language)
}

// LanguageFromContext reads the requester's language from ctx.
func LanguageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKey{})
	s, ok := v.(string)
	return s, ok && s != ""
}

var reSimpleLang = regexp.MustCompile(`^[a-z]{2}$`)

// Normalize reduces a locale tag such as "es-ES" or "pt_BR" to its two-letter
// language code. Anything else yields "".
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	if !reSimpleLang.MatchString(s) {
		return ""
	}
	return s
}
