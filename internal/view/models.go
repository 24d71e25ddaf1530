package view

import (
	"net/url"
	"strconv"

	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/pagination"
	"github.com/hitoshi/empdir/internal/viewstate"
)

// 画面のパス
const (
	PathList   = "/employees"
	PathNew    = "/employees/new"
	PathEvents = "/employees/events"
)

// EditPath は社員編集画面のパスを返す。
func EditPath(id string) string {
	return "/employees/edit/" + url.PathEscape(id)
}

// DeletePath は社員削除確認画面のパスを返す。
func DeletePath(id string) string {
	return "/employees/delete/" + url.PathEscape(id)
}

// Layout は全画面に共通の表示モデル。
type Layout struct {
	L *i18n.Localizer
	// CSRFToken はフォームの hidden フィールドに埋め込むトークン。
	CSRFToken string
	// SwitchLocaleURL は言語切り替えリンクの遷移先。
	SwitchLocaleURL string
	// Live が true の画面はストアの変更を購読して再読み込みする。
	Live bool
}

// Option はセレクトの選択肢。
type Option struct {
	Value string
	Label string
}

// ListPage は社員一覧画面の表示モデル。
type ListPage struct {
	Layout
	State     viewstate.State
	Employees []model.Employee
	Pager     pagination.Pager
	// Total は検索後の件数。
	Total int
}

// IsGrid はカード表示かどうかを返す。
func (p ListPage) IsGrid() bool {
	return p.State.Mode == viewstate.ModeGrid
}

// ShowPagination はページネーションを表示するかどうかを返す。結果が空の場合は表示しない。
func (p ListPage) ShowPagination() bool {
	return len(p.Employees) > 0
}

// PageURL は現在の状態で page ページへ移動するアドレスを返す。
func (p ListPage) PageURL(page int) string {
	return p.State.WithPage(page).URL(PathList)
}

// ModeURL は表示モードを切り替えるアドレスを返す。
func (p ListPage) ModeURL(mode string) string {
	m, ok := viewstate.ParseMode(mode)
	if !ok {
		m = viewstate.ModeList
	}
	return p.State.WithMode(m).URL(PathList)
}

// ModeTreatment は表示モード切り替えボタンの見た目を返す。選択中のモードは塗りつぶし。
func (p ListPage) ModeTreatment(mode string) string {
	if string(p.State.Mode) == mode {
		return ""
	}
	return "ghost"
}

// ReturnURL は現在の一覧アドレス。削除後の戻り先に使う。
func (p ListPage) ReturnURL() string {
	return p.State.URL(PathList)
}

// EditURL は社員編集画面のアドレスを返す。
func (p ListPage) EditURL(id string) string {
	return EditPath(id)
}

// DeleteURL は削除確認画面のアドレスを返す。一覧の現在位置を戻り先として渡す。
func (p ListPage) DeleteURL(id string) string {
	return DeletePath(id) + "?" + url.Values{"return": {p.ReturnURL()}}.Encode()
}

// PageOf は "Page x of y" 表示用の文字列を返す。
func (p ListPage) PageOf() string {
	return p.L.T(i18n.KeyPageOf, strconv.Itoa(p.Pager.Current), strconv.Itoa(p.Pager.Total))
}

// FormPage は社員の追加・編集画面の表示モデル。
type FormPage struct {
	Layout
	// Editing は編集対象。追加画面では nil。
	Editing *model.Employee
	Action  string
	Values  map[string]string
	Errors  map[string]string
}

// Title は画面見出しを返す。
func (p FormPage) Title() string {
	if p.Editing != nil {
		return p.L.T(i18n.KeyFormEditTitle)
	}
	return p.L.T(i18n.KeyFormAddTitle)
}

// Departments は部署の選択肢を返す。
func (p FormPage) Departments() []Option {
	opts := make([]Option, 0, len(model.Departments()))
	for _, d := range model.Departments() {
		opts = append(opts, Option{Value: string(d), Label: p.L.T(i18n.OptionKey(string(d)))})
	}
	return opts
}

// Positions は職位の選択肢を返す。
func (p FormPage) Positions() []Option {
	opts := make([]Option, 0, len(model.Positions()))
	for _, pos := range model.Positions() {
		opts = append(opts, Option{Value: string(pos), Label: p.L.T(i18n.OptionKey(string(pos)))})
	}
	return opts
}

// DeletePage は削除確認ダイアログ画面の表示モデル。
type DeletePage struct {
	Layout
	Employee  model.Employee
	Action    string
	CancelURL string
}

// NotFoundPage は404画面の表示モデル。
type NotFoundPage struct {
	Layout
}
