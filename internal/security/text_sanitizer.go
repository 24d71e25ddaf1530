// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はフォームやJSONで送信された社員情報の文字列から
// HTMLを取り除き、保存前に素のテキストへ正規化する。
// bluemondayの StrictPolicy（全タグ不許可）を使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize は入力からHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// script, style 要素は内容ごと除去される。
	// 文字参照はデコードされ、表示時のエスケープはテンプレートに任せる。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は不動点に達するまでの最大反復回数。
// 文字参照の入れ子はこれより深くならない限り全て解消される。
const maxSanitizePasses = 8

// Sanitize は入力をプレーンテキストに正規化する。
// デコードで新たにタグが現れなくなるまで繰り返すため、出力を再度渡しても変化しない。
func (s *textSanitizer) Sanitize(raw string) string {
	out := raw
	for i := 0; i < maxSanitizePasses && out != ""; i++ {
		next := s.pass(out)
		if next == out {
			return out
		}
		out = next
	}
	if out != "" && s.pass(out) != out {
		// 入れ子が深すぎる入力はテキストとして扱わない
		return ""
	}
	return out
}

// pass はポリシーを1回適用する。
// StrictPolicy は & や ' をエスケープするため、保存用にデコードし直す。
func (s *textSanitizer) pass(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
