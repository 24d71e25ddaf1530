// Package viewstate は一覧画面の一時的なUI状態（現在ページ・表示モード・検索文字列）と
// アドレスのクエリパラメータとの双方向の同期を扱う。
package viewstate

import (
	"net/url"
	"strconv"
)

// クエリパラメータ名
const (
	ParamPage   = "page"
	ParamView   = "view"
	ParamSearch = "q"
)

// Mode は一覧の表示モード。
type Mode string

const (
	ModeList Mode = "list"
	ModeGrid Mode = "grid"
)

// ParseMode は認識できる表示モードであれば ok=true で返す。
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeList, ModeGrid:
		return Mode(s), true
	default:
		return "", false
	}
}

// State は一覧画面のUI状態。
type State struct {
	Page   int
	Mode   Mode
	Search string
}

// Default は初期状態（1ページ目・リスト表示・検索なし）を返す。
func Default() State {
	return State{Page: 1, Mode: ModeList}
}

// WithPage はページを変更した状態を返す。
func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

// WithMode は表示モードを変更した状態を返す。
func (s State) WithMode(mode Mode) State {
	s.Mode = mode
	return s
}

// WithSearch は検索文字列を変更した状態を返す。
// 検索文字列の変更は結果件数を変えうるため、常に1ページ目に戻す。
func (s State) WithSearch(search string) State {
	s.Search = search
	s.Page = 1
	return s
}

// Query は状態を正規化したクエリパラメータに変換する。
func (s State) Query() url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(s.Page))
	v.Set(ParamView, string(s.Mode))
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	return v
}

// URL は path に状態のクエリ文字列を付けたアドレスを返す。
func (s State) URL(path string) string {
	return path + "?" + s.Query().Encode()
}

// Result は Sync の結果。
type Result struct {
	State State
	// SearchChanged は検索文字列が変わったことを表す。
	SearchChanged bool
	// Redirect はアドレスを State.URL に書き換える必要があることを表す。
	Redirect bool
}

// Sync はアドレスのクエリパラメータを現在の状態に反映する。
//
//   - q が存在し現在の検索文字列と異なれば、検索文字列を採用してページを1に戻す。
//     アドレスが page=1 を示していなければ Redirect を立てる。
//   - page は [1, totalPages(検索文字列)] の整数である場合のみ採用する。
//   - view は list か grid の場合のみ採用する。
//
// 不正なパラメータは黙って無視し、現在の値を維持する。
// 結果のページが総ページ数を超える場合（ストアの縮小など）は最終ページに合わせる。
func Sync(current State, query url.Values, totalPages func(search string) int) Result {
	res := Result{State: current}
	if res.State.Page < 1 {
		res.State.Page = 1
	}
	if _, ok := ParseMode(string(res.State.Mode)); !ok {
		res.State.Mode = ModeList
	}

	if query.Has(ParamSearch) {
		if search := query.Get(ParamSearch); search != current.Search {
			res.State = res.State.WithSearch(search)
			res.SearchChanged = true
			res.Redirect = query.Get(ParamPage) != "1"
		}
	}

	total := totalPages(res.State.Search)

	if !res.SearchChanged {
		if page, err := strconv.Atoi(query.Get(ParamPage)); err == nil && page >= 1 && page <= total {
			res.State.Page = page
		}
	}

	if mode, ok := ParseMode(query.Get(ParamView)); ok {
		res.State.Mode = mode
	}

	if res.State.Page > total {
		res.State.Page = total
	}

	return res
}
