package domain

import (
	"fmt"
	"strings"
	"time"
)

// Unknown 是国家/城市无法解析时的哨兵值。
const Unknown = "Unknown"

// Location 是逆地理编码归一化后的 (country, city)。
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

func UnknownLocation() Location {
	return Location{Country: Unknown, City: Unknown}
}

// Normalize 把空串统一成 Unknown，并去掉首尾空白。
func (l Location) Normalize() Location {
	l.Country = strings.TrimSpace(l.Country)
	l.City = strings.TrimSpace(l.City)
	if l.Country == "" {
		l.Country = Unknown
	}
	if l.City == "" {
		l.City = Unknown
	}
	return l
}

func (l Location) IsUnknown() bool {
	n := l.Normalize()
	return n.Country == Unknown && n.City == Unknown
}

func (l Location) String() string {
	n := l.Normalize()
	return n.Country + "/" + n.City
}

// Date 是天粒度的日历日期（不含时分秒与时区）。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf 截取 t 在其自身时区下的日期部分。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
