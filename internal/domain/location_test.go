package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_OrderingAndText(t *testing.T) {
	a := Date{Year: 2024, Month: time.January, Day: 31}
	b := Date{Year: 2024, Month: time.February, Day: 1}

	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Fatalf("日期比较不正确")
	}
	if a.String() != "2024-01-31" {
		t.Fatalf("String 不符合 YYYY-MM-DD：%q", a.String())
	}

	type wrap struct {
		D Date `json:"d"`
	}
	raw, err := json.Marshal(wrap{D: a})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(raw) != `{"d":"2024-01-31"}` {
		t.Fatalf("JSON 不符合预期：%s", raw)
	}
	var back wrap
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if back.D != a {
		t.Fatalf("往返后不一致：%+v", back.D)
	}
}

func TestDateOf_TruncatesTimeOfDay(t *testing.T) {
	d := DateOf(time.Date(2024, 3, 5, 23, 59, 59, 0, time.Local))
	if d != (Date{Year: 2024, Month: time.March, Day: 5}) {
		t.Fatalf("截断结果不正确：%+v", d)
	}
}

func TestLocation_Normalize(t *testing.T) {
	l := Location{Country: " France ", City: ""}.Normalize()
	if l.Country != "France" || l.City != Unknown {
		t.Fatalf("Normalize 结果不正确：%+v", l)
	}
	if !(Location{}).IsUnknown() {
		t.Fatalf("空位置应视为 Unknown")
	}
	if (Location{Country: "Spain"}).IsUnknown() {
		t.Fatalf("只有国家时不应视为完全 Unknown")
	}
}
