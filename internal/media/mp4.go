package media

import (
	"fmt"
	"os"
	"time"

	mp4 "github.com/abema/go-mp4"
)

// mp4EpochOffset 是 1904-01-01 与 Unix 纪元之间的秒数。
const mp4EpochOffset = 2082844800

// VideoCreationTime 读取 moov/mvhd 的 creation_time（本地时区）。
//
// ok=false 表示没有 mvhd 或时间戳为 0 / 早于 Unix 纪元；调用方应回退到 mtime。
// 只有文件无法打开或容器结构无法解析时才返回 error。
func VideoCreationTime(path string) (t time.Time, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false, err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("解析 MP4 结构失败：%w", err)
	}
	for _, b := range boxes {
		mvhd, isMvhd := b.Payload.(*mp4.Mvhd)
		if !isMvhd {
			continue
		}
		ct := mvhd.GetCreationTime()
		if ct == 0 || ct < mp4EpochOffset {
			return time.Time{}, false, nil
		}
		return time.Unix(int64(ct-mp4EpochOffset), 0), true, nil
	}
	return time.Time{}, false, nil
}
