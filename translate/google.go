package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/bregydoc/gtranslate"
)

// Google translates through the free Google Translate web endpoint. It
// needs no API key.
type Google struct {
	call func(text string, params gtranslate.TranslationParams) (string, error)
}

// NewGoogle returns the Google Translate adapter.
func NewGoogle() *Google {
	return &Google{call: gtranslate.TranslateWithParams}
}

func (g *Google) Translate(ctx context.Context, text, target, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := g.call(text, gtranslate.TranslationParams{
		From: googleCode(source),
		To:   googleCode(target),
	})
	if err != nil {
		return "", providerErr(ProviderGoogle, 0, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", providerErr(ProviderGoogle, 0, fmt.Errorf("%w for %q", ErrEmptyResponse, text))
	}
	return out, nil
}

// googleCode maps BCP 47 codes to the codes the endpoint understands.
// Chinese keeps its script region; other languages use the bare language.
func googleCode(code string) string {
	switch code {
	case "zh-CN", "zh-TW", "zh-HK":
		return code
	case "zh-Hans":
		return "zh-CN"
	case "zh-Hant":
		return "zh-TW"
	}
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}
