package app

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/PMC/internal/domain"
)

// RunLabel 生成 run 的输出目录名。
//
// 格式：start 或 start_end（YYYY-MM-DD），随后依次追加 _country、_city；
// Unknown 的部分省略。例：2024-01-01_2024-01-03_france_paris。
func RunLabel(r domain.Run) string {
	var b strings.Builder
	b.WriteString(r.Start.String())
	if r.End != r.Start {
		b.WriteByte('_')
		b.WriteString(r.End.String())
	}

	loc := r.Location.Normalize()
	for _, part := range []string{loc.Country, loc.City} {
		if part == domain.Unknown {
			continue
		}
		if s := Slugify(part); s != "" {
			b.WriteByte('_')
			b.WriteString(s)
		}
	}
	return b.String()
}

// Slugify 把地名转成可作目录名的片段：去掉重音，非字母数字折叠为 '_'，转小写。
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
