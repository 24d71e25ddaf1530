// Package view はHTML画面のテンプレートと、その表示モデルを提供する。
//
// テンプレートはバイナリに埋め込み、起動時に1度だけ解析する。
// ボタン・入力欄・セレクト・テーブル・カード・確認ダイアログ・ページネーションは
// templates/components 配下の部品として各画面から呼び出す。
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates
var templatesFS embed.FS

// 画面テンプレート名
const (
	PageList     = "list"
	PageForm     = "form"
	PageDelete   = "delete"
	PageNotFound = "notfound"
)

var pages = []string{PageList, PageForm, PageDelete, PageNotFound}

// ErrUnknownPage は未定義の画面名が指定されたことを表す。
var ErrUnknownPage = errors.New("unknown page template")

// Renderer は画面テンプレートを描画する。生成後は並行利用できる。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートを解析して Renderer を生成する。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/components/*.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render は page を data で描画して w に書き込む。
// 描画途中の失敗で壊れたHTMLを返さないよう、一度バッファに描画する。
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcMap = template.FuncMap{
	// dict は部品テンプレートに渡す引数をキーと値の組から組み立てる。
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict requires key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
}
