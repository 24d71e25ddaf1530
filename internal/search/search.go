// Package search は社員スナップショットに対するあいまい検索を提供する。
//
// 空クエリは恒等関数としてストア順のまま返し、
// 非空クエリはマッチ品質の高い順に並べた部分集合を返す。
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/empdir/internal/model"
	"github.com/sahilm/fuzzy"
)

// DefaultThreshold は許容する編集数の比率（クエリ長に対する割合）の既定値。
const DefaultThreshold = 0.25

// MaxQueryRunes はクエリとして扱う最大文字数。超えた部分は無視する。
// 近似一致の計算量はクエリ長とフィールド長の積に比例する。
const MaxQueryRunes = 256

// Key は検索対象フィールドを表す。
type Key struct {
	Name string
	Get  func(model.Employee) string
}

// DefaultKeys は名・姓・メール・部署・職位を検索対象とする。
func DefaultKeys() []Key {
	return []Key{
		{Name: "first_name", Get: func(e model.Employee) string { return e.FirstName }},
		{Name: "last_name", Get: func(e model.Employee) string { return e.LastName }},
		{Name: "email", Get: func(e model.Employee) string { return e.Email }},
		{Name: "department", Get: func(e model.Employee) string { return string(e.Department) }},
		{Name: "position", Get: func(e model.Employee) string { return string(e.Position) }},
	}
}

// Options は Searcher の設定。
type Options struct {
	Keys []Key
	// Threshold はクエリ長に対する許容編集数の比率。0以下の場合は DefaultThreshold。
	Threshold float64
}

// Searcher は設定済みのキーと閾値であいまい検索を行う。
// 状態を持たないため並行利用できる。
type Searcher struct {
	keys      []Key
	threshold float64
}

// New は Searcher を生成する。
func New(opts Options) *Searcher {
	keys := opts.Keys
	if len(keys) == 0 {
		keys = DefaultKeys()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Searcher{keys: keys, threshold: threshold}
}

// candidate は1レコード分のマッチ結果。
type candidate struct {
	index int
	// edits は近似部分文字列マッチの最小編集数。-1 は該当なし。
	edits int
	// fuzzyScore はサブシーケンスマッチの最高スコア。
	fuzzyScore int
	fuzzyHit   bool
}

// Filter は snapshot のうち query に近似一致するレコードを返す。
// query が空（空白のみを含む）の場合は snapshot をそのまま返す。
// 非空の場合の並び順は、近似部分文字列一致（編集数の少ない順）、
// サブシーケンスのみの一致、の順で、同順位はスコア、次にストア順で決まる。
// query は先頭 MaxQueryRunes 文字のみを使う。
func (s *Searcher) Filter(snapshot []model.Employee, query string) []model.Employee {
	query = truncateQuery(strings.TrimSpace(query))
	if query == "" {
		return snapshot
	}

	pattern := []rune(strings.ToLower(query))
	maxEdits := int(float64(len(pattern)) * s.threshold)

	cands := make([]candidate, len(snapshot))
	for i := range cands {
		cands[i] = candidate{index: i, edits: -1}
	}

	for _, key := range s.keys {
		src := fieldSource{employees: snapshot, get: key.Get}

		for i, e := range snapshot {
			field := []rune(strings.ToLower(key.Get(e)))
			d := approxSubstringDistance(pattern, field)
			if d <= maxEdits && (cands[i].edits < 0 || d < cands[i].edits) {
				cands[i].edits = d
			}
		}

		for _, m := range fuzzy.FindFrom(query, src) {
			c := &cands[m.Index]
			if !c.fuzzyHit || m.Score > c.fuzzyScore {
				c.fuzzyScore = m.Score
			}
			c.fuzzyHit = true
		}
	}

	matched := cands[:0]
	for _, c := range cands {
		if c.edits >= 0 || c.fuzzyHit {
			matched = append(matched, c)
		}
	}

	sort.SliceStable(matched, func(a, b int) bool {
		ca, cb := matched[a], matched[b]
		if (ca.edits >= 0) != (cb.edits >= 0) {
			return ca.edits >= 0
		}
		if ca.edits != cb.edits {
			return ca.edits < cb.edits
		}
		if ca.fuzzyScore != cb.fuzzyScore {
			return ca.fuzzyScore > cb.fuzzyScore
		}
		return ca.index < cb.index
	})

	out := make([]model.Employee, len(matched))
	for i, c := range matched {
		out[i] = snapshot[c.index]
	}
	return out
}

// fieldSource は fuzzy.Source を実装し、社員の1フィールドを検索対象として公開する。
type fieldSource struct {
	employees []model.Employee
	get       func(model.Employee) string
}

func (f fieldSource) String(i int) string { return f.get(f.employees[i]) }
func (f fieldSource) Len() int            { return len(f.employees) }

// approxSubstringDistance は text の任意の部分文字列と pattern との最小編集距離を返す。
func approxSubstringDistance(pattern, text []rune) int {
	m := len(pattern)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for i := range prev {
		prev[i] = i
	}
	best := prev[m]

	for j := 1; j <= len(text); j++ {
		// 部分文字列はどこからでも始められるため先頭行は常に0
		cur[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			cur[i] = min(prev[i-1]+cost, prev[i]+1, cur[i-1]+1)
		}
		if cur[m] < best {
			best = cur[m]
		}
		prev, cur = cur, prev
	}
	return best
}

// truncateQuery は query を先頭 MaxQueryRunes 文字に切り詰める。
func truncateQuery(query string) string {
	if utf8.RuneCountInString(query) <= MaxQueryRunes {
		return query
	}
	return strings.TrimSpace(string([]rune(query)[:MaxQueryRunes]))
}
