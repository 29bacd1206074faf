package cache

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GetOrCompute 先查 s；命中则直接解码返回（不调用 compute，不做再校验）。
// 未命中时调用 compute，把结果 JSON 编码后写回 s，再返回结果。
//
// - compute 返回错误时不缓存
// - s 为只读（ErrReadOnly）时照常返回计算结果，只是不落盘
// - s 为 nil 时退化为直接调用 compute
func GetOrCompute[T any](s Store, key string, compute func() (T, error)) (v T, hit bool, err error) {
	if s == nil {
		v, err = compute()
		return v, false, err
	}

	b, ok, err := s.Get(key)
	if err != nil {
		return v, false, err
	}
	if ok {
		if err := json.Unmarshal(b, &v); err != nil {
			return v, false, fmt.Errorf("解码缓存值失败：key=%s：%w", key, err)
		}
		return v, true, nil
	}

	v, err = compute()
	if err != nil {
		return v, false, err
	}

	enc, err := json.Marshal(v)
	if err != nil {
		return v, false, fmt.Errorf("编码缓存值失败：key=%s：%w", key, err)
	}
	if err := s.Put(key, enc); err != nil && !errors.Is(err, ErrReadOnly) {
		return v, false, err
	}
	return v, false, nil
}
