package model

// ChangeKind はストアに対するミューテーションの種類を表す。
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
	// ChangeSeeded は初期データの一括投入を表す。IDは空になる。
	ChangeSeeded ChangeKind = "seeded"
)

// Change はコミット済みのミューテーション1件の通知内容。
type Change struct {
	Kind ChangeKind
	// ID は対象社員のID。
	ID string
	// Version はミューテーション適用後のストアのバージョン。
	Version uint64
	// Count はミューテーション適用後の件数。
	Count int
}
