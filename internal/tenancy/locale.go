package tenancy

import (
	"context"

	"golang.org/x/text/language"

	"github.com/suteetoe/tenantstarter/internal/model"
)

// Locales is an immutable snapshot of the offered languages and the
// default used when a request's language is not offered.
type Locales struct {
	Offered []string `json:"offered"`
	Default string   `json:"default"`
}

func (l Locales) clone() Locales {
	offered := make([]string, len(l.Offered))
	copy(offered, l.Offered)
	return Locales{Offered: offered, Default: l.Default}
}

// Offers reports whether code is offered
func (l Locales) Offers(code string) bool {
	for _, c := range l.Offered {
		if c == code {
			return true
		}
	}
	return false
}

// Activate returns code when it is offered, and the default otherwise
func (l Locales) Activate(code string) string {
	if code != "" && l.Offers(code) {
		return code
	}
	return l.Default
}

// Negotiate picks the best offered language for an Accept-Language header
func (l Locales) Negotiate(acceptLanguage string) string {
	if len(l.Offered) == 0 {
		return l.Default
	}
	tags := make([]language.Tag, 0, len(l.Offered)+1)
	codes := make([]string, 0, len(l.Offered)+1)
	// The matcher falls back to its first tag, so the default goes first.
	if l.Offers(l.Default) {
		tags = append(tags, language.Make(l.Default))
		codes = append(codes, l.Default)
	}
	for _, c := range l.Offered {
		if c == l.Default {
			continue
		}
		tags = append(tags, language.Make(c))
		codes = append(codes, c)
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return l.Default
	}
	_, idx, conf := language.NewMatcher(tags).Match(desired...)
	if conf == language.No {
		return l.Default
	}
	return codes[idx]
}

// narrow restricts the system locales to t's active languages, keeping the
// system order. A tenant without active languages, or whose languages are
// all unknown, sees the system defaults unchanged.
func (s *Scoper) narrow(t *model.Tenant) Locales {
	if len(t.ActiveLanguages) == 0 {
		return s.system.clone()
	}
	offered := make([]string, 0, len(s.system.Offered))
	for _, c := range s.system.Offered {
		if t.ActiveLanguages.Contains(c) {
			offered = append(offered, c)
		}
	}
	if len(offered) == 0 {
		return s.system.clone()
	}
	narrowed := Locales{Offered: offered, Default: s.system.Default}
	if t.DefaultLanguage != "" && narrowed.Offers(t.DefaultLanguage) {
		narrowed.Default = t.DefaultLanguage
	} else if !narrowed.Offers(narrowed.Default) {
		narrowed.Default = offered[0]
	}
	return narrowed
}

// NegotiateLanguage picks the language for a request bound to ctx
func (s *Scoper) NegotiateLanguage(ctx context.Context, acceptLanguage string) string {
	return s.Locales(ctx).Negotiate(acceptLanguage)
}
