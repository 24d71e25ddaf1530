package pagination

// Item はページネーションに並ぶ1要素。
// Ellipsis が true の場合は省略記号で、Page は意味を持たない。
type Item struct {
	Page     int
	Ellipsis bool
	Current  bool
}

// Window は current を中心に最大 maxVisible 個のページ番号を返す。
// 総ページ数が maxVisible を超える場合は先頭・末尾ページを常に含め、
// 間を省略記号で埋める。
func Window(current, total, maxVisible int) []Item {
	if total < 1 {
		total = 1
	}
	if maxVisible < 5 {
		maxVisible = 5
	}

	if total <= maxVisible {
		return pageRange(1, total, current)
	}

	// 先頭・末尾・省略記号の分を除いた片側の幅
	side := (maxVisible - 3) / 2

	if current <= side+2 {
		items := pageRange(1, maxVisible-2, current)
		return append(items, Item{Ellipsis: true}, pageItem(total, current))
	}

	if current >= total-side-1 {
		items := []Item{pageItem(1, current), {Ellipsis: true}}
		start := total - (maxVisible - 3)
		return append(items, pageRange(start, total, current)...)
	}

	items := []Item{pageItem(1, current), {Ellipsis: true}}
	items = append(items, pageRange(current-side, current+side, current)...)
	return append(items, Item{Ellipsis: true}, pageItem(total, current))
}

func pageItem(page, current int) Item {
	return Item{Page: page, Current: page == current}
}

func pageRange(from, to, current int) []Item {
	items := make([]Item, 0, to-from+1)
	for p := from; p <= to; p++ {
		items = append(items, pageItem(p, current))
	}
	return items
}

// Pager はページネーションUIの表示モデル。
type Pager struct {
	Current int
	Total   int
	Items   []Item
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
}

// NewPager は現在ページと総ページ数から Pager を組み立てる。
func NewPager(current, total, maxVisible int) Pager {
	if total < 1 {
		total = 1
	}
	return Pager{
		Current: current,
		Total:   total,
		Items:   Window(current, total, maxVisible),
		HasPrev: current > 1,
		HasNext: current < total,
		Prev:    current - 1,
		Next:    current + 1,
	}
}
