package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout はカレンダー日付の文字列表現（ISO 8601）。
const DateLayout = "2006-01-02"

// Date は時刻を持たないカレンダー日付を表す。
// ゼロ値は未設定を意味する。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate は "YYYY-MM-DD" 形式の文字列を Date に変換する。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate は ParseDate の結果を返し、失敗時はpanicする。
// シードデータとテストでのみ使用する。
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf は t の日付部分を返す。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero は日付が未設定かどうかを返す。
func (d Date) IsZero() bool {
	return d == Date{}
}

// String は "YYYY-MM-DD" 形式を返す。未設定の場合は空文字列。
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON は日付をJSON文字列として出力する。
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON はJSON文字列を日付として読み込む。空文字列はゼロ値になる。
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
