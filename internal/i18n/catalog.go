// Package i18n は画面文言とバリデーションメッセージの多言語化を提供する。
//
// 対応ロケールは en と tr。メッセージは universal-translator に登録し、
// Accept-Language からのロケール決定には golang.org/x/text/language を使う。
package i18n

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"

	"github.com/hitoshi/empdir/internal/model"
)

// ロケール
const (
	LocaleEN = "en"
	LocaleTR = "tr"
)

// Catalog はロケールごとの翻訳器を保持する。生成後は読み取り専用で、並行利用できる。
type Catalog struct {
	uni           *ut.UniversalTranslator
	defaultLocale string
	supported     []string
	matcher       language.Matcher
}

// New は en と tr のメッセージを登録した Catalog を生成する。
// defaultLocale が未対応の場合は en を既定とする。
func New(defaultLocale string) (*Catalog, error) {
	enLocale := en.New()
	trLocale := tr.New()
	uni := ut.New(enLocale, enLocale, trLocale)

	tables := map[string]map[string]string{
		LocaleEN: messagesEN,
		LocaleTR: messagesTR,
	}
	for locale, messages := range tables {
		trans, ok := uni.GetTranslator(locale)
		if !ok {
			return nil, fmt.Errorf("translator not found: %s", locale)
		}
		for key, text := range messages {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to add message %s/%s: %w", locale, key, err)
			}
		}
	}

	if defaultLocale != LocaleEN && defaultLocale != LocaleTR {
		defaultLocale = LocaleEN
	}

	// Match は信頼度 No のとき先頭のタグを返すため、既定ロケールを先頭に置く
	supported := []string{defaultLocale}
	for _, l := range []string{LocaleEN, LocaleTR} {
		if l != defaultLocale {
			supported = append(supported, l)
		}
	}
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = language.Make(l)
	}

	return &Catalog{
		uni:           uni,
		defaultLocale: defaultLocale,
		supported:     supported,
		matcher:       language.NewMatcher(tags),
	}, nil
}

// DefaultLocale は既定ロケールを返す。
func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// Supported は locale が対応ロケールかどうかを返す。
func (c *Catalog) Supported(locale string) bool {
	for _, l := range c.supported {
		if l == locale {
			return true
		}
	}
	return false
}

// Negotiate は Accept-Language ヘッダ値から最適なロケールを決定する。
// 解析できない場合や一致しない場合は既定ロケールを返す。
func (c *Catalog) Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return c.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.defaultLocale
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.defaultLocale
	}
	return c.supported[idx]
}

// Translator は locale の翻訳器を返す。未対応の場合は既定ロケールの翻訳器を返す。
func (c *Catalog) Translator(locale string) ut.Translator {
	if !c.Supported(locale) {
		locale = c.defaultLocale
	}
	trans, _ := c.uni.GetTranslator(locale)
	return trans
}

// Localizer は locale に束縛した Localizer を返す。
func (c *Catalog) Localizer(locale string) *Localizer {
	if !c.Supported(locale) {
		locale = c.defaultLocale
	}
	return &Localizer{locale: locale, trans: c.Translator(locale)}
}

// Localizer は1つのロケールで文言を解決する。
type Localizer struct {
	locale string
	trans  ut.Translator
}

// Locale はロケール名を返す。
func (l *Localizer) Locale() string {
	return l.locale
}

// T は key の文言を返す。{0}, {1} ... は params で置換する。
// 未登録のキーはキー自体を返す。
func (l *Localizer) T(key string, params ...string) string {
	s, err := l.trans.T(key, params...)
	if err != nil {
		slog.Warn("missing translation",
			slog.String("locale", l.locale),
			slog.String("key", key),
		)
		return key
	}
	return s
}

// Date はロケールの短い日付形式で d を整形する。ゼロ値は空文字列。
func (l *Localizer) Date(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return l.trans.FmtDateShort(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
}

// Translator は validator のメッセージ翻訳に使う下位の翻訳器を返す。
func (l *Localizer) Translator() ut.Translator {
	return l.trans
}
