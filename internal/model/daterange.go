package model

import (
	"math"
	"time"
)

// DateLayout は日付のみを扱う入出力フォーマットです
const DateLayout = "2006-01-02"

// DateOf は時刻部分を切り捨ててUTCの暦日に正規化します
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange は半開区間 [CheckIn, CheckOut) を表します
// チェックアウト日は占有されないため同日の入れ替えが可能です
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange は日付を正規化した上で CheckIn < CheckOut を検証します
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: DateOf(checkIn), CheckOut: DateOf(checkOut)}
	if !r.CheckIn.Before(r.CheckOut) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// Nights は宿泊数を返します
func (r DateRange) Nights() int {
	return int(math.Round(r.CheckOut.Sub(r.CheckIn).Hours() / 24))
}

// Overlaps は a1 < b2 かつ b1 < a2 のとき true を返します
func (r DateRange) Overlaps(o DateRange) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// Contains は指定日が区間内かどうかを返します
func (r DateRange) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// RoundCents は金額を小数点以下2桁に丸めます
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
