// Package pagination はリストの固定サイズページ分割と、
// ページネーションUIに表示するページ番号ウィンドウの計算を提供する。
package pagination

// DefaultPageSize は1ページあたりの既定件数。
const DefaultPageSize = 9

// DefaultMaxVisible はページネーションに並べるページボタン数の既定値。
const DefaultMaxVisible = 5

// Paginate は items の [(page-1)*size, page*size) の範囲を返す。
// 範囲外のページ（page < 1 を含む）には空スライスを返し、丸め込みは行わない。
// size が1未満の場合も空スライスを返す。
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// TotalPages は n 件を size 件ずつ分割したときのページ数を返す。
// n が0でも最低1ページとする。
func TotalPages(n, size int) int {
	if size < 1 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}
