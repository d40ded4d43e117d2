package translate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// placeholderPattern matches interpolation tokens that must survive
// translation unchanged: {{name}} (i18next), {name}, :name (Laravel
// attributes), printf verbs and numbered tags such as <0> and </0>.
var placeholderPattern = regexp.MustCompile(`\{\{\s*[\w.,\- ]+?\s*\}\}|\{[\w.]+\}|:[A-Za-z_][A-Za-z0-9_]*|%(?:\d+\$)?[sdfu]|</?\d+>`)

// maskedPattern finds masked tokens in a response. Translation services
// sometimes insert spaces or change case inside the token.
var maskedPattern = regexp.MustCompile(`(?i)__\s*PH\s*(\d+)\s*__`)

// Mask replaces placeholders in text with opaque __PHn__ tokens and returns
// the originals in token order.
func Mask(text string) (string, []string) {
	var originals []string
	masked := placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		originals = append(originals, m)
		return fmt.Sprintf("__PH%d__", len(originals)-1)
	})
	return masked, originals
}

// Unmask restores placeholders. Every token must appear in the response.
func Unmask(text string, originals []string) (string, error) {
	seen := make([]bool, len(originals))
	out := maskedPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := maskedPattern.FindStringSubmatch(m)
		i, err := strconv.Atoi(sub[1])
		if err != nil || i >= len(originals) {
			return m
		}
		seen[i] = true
		return originals[i]
	})
	for i, ok := range seen {
		if !ok {
			return "", fmt.Errorf("placeholder %q lost in translation", originals[i])
		}
	}
	return out, nil
}

// placeholders masks interpolation tokens around the wrapped translator.
type placeholders struct {
	next     Translator
	provider string
}

// WithPlaceholders wraps next so placeholders are masked before the call
// and restored after it. A response that lost a token is a provider
// failure.
func WithPlaceholders(next Translator, provider string) Translator {
	return &placeholders{next: next, provider: provider}
}

func (p *placeholders) Translate(ctx context.Context, text, target, source string) (string, error) {
	masked, originals := Mask(text)
	if len(originals) == 0 {
		return p.next.Translate(ctx, text, target, source)
	}

	out, err := p.next.Translate(ctx, masked, target, source)
	if err != nil {
		return "", err
	}
	restored, err := Unmask(out, originals)
	if err != nil {
		return "", providerErr(p.provider, 0, err)
	}
	return restored, nil
}
