package geocode

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/PMC/internal/domain"
)

// cityKeys 是扁平地址里城市字段的回退顺序。
var cityKeys = []string{"city", "town", "village", "hamlet"}

// localityTypes 是分量列表中视作“城市”的类型标签。
var localityTypes = []string{"locality", "postal_town"}

// Normalize 把各服务形状各异的地址 JSON 归一化为 (country, city)。
//
// 按顺序检查：
// (a) 带类型标签的分量列表（address_components / components）
// (b) properties.address，其次 address
// (c) 顶层键
//
// 形状都不匹配时返回 Unknown/Unknown，不报错。
func Normalize(raw []byte) domain.Location {
	return normalize(gjson.ParseBytes(raw))
}

func normalize(doc gjson.Result) domain.Location {
	for _, k := range []string{"address_components", "components"} {
		if list := doc.Get(k); list.IsArray() && len(list.Array()) > 0 {
			return fromComponents(list)
		}
	}
	for _, k := range []string{"properties.address", "address"} {
		if addr := doc.Get(k); addr.IsObject() {
			return fromFlat(addr)
		}
	}
	if doc.IsObject() {
		return fromFlat(doc)
	}
	return domain.UnknownLocation()
}

func fromComponents(list gjson.Result) domain.Location {
	var loc domain.Location
	onlyArea := true

	list.ForEach(func(_, c gjson.Result) bool {
		types := componentTypes(c)
		if !(len(types) == 1 && types[0] == "plus_code") {
			onlyArea = false
		}
		name := componentName(c)
		if name == "" {
			return true
		}
		if loc.Country == "" && hasAny(types, "country") {
			loc.Country = name
		}
		if loc.City == "" && hasAny(types, localityTypes...) {
			loc.City = name
		}
		return true
	})

	// 只解析到一个通用区域码（plus code）时，视为没有地址。
	if onlyArea {
		return domain.UnknownLocation()
	}
	return loc.Normalize()
}

func fromFlat(obj gjson.Result) domain.Location {
	loc := domain.Location{Country: strings.TrimSpace(obj.Get("country").String())}
	for _, k := range cityKeys {
		if v := strings.TrimSpace(obj.Get(k).String()); v != "" {
			loc.City = v
			break
		}
	}
	return loc.Normalize()
}

func componentTypes(c gjson.Result) []string {
	var out []string
	c.Get("types").ForEach(func(_, t gjson.Result) bool {
		out = append(out, strings.ToLower(strings.TrimSpace(t.String())))
		return true
	})
	return out
}

func componentName(c gjson.Result) string {
	for _, k := range []string{"long_name", "name", "short_name"} {
		if v := strings.TrimSpace(c.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}

func hasAny(types []string, want ...string) bool {
	for _, t := range types {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}
