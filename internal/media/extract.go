package media

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/infra/cache"
)

// ErrUnsupported 表示扩展名不属于图片或视频。
var ErrUnsupported = errors.New("media: unsupported file type")

var (
	imageExts = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
	videoExts = map[string]struct{}{".mp4": {}}
)

// KindOf 按扩展名（不区分大小写）判定媒体类型。
func KindOf(path string) domain.MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExts[ext]; ok {
		return domain.KindImage
	}
	if _, ok := videoExts[ext]; ok {
		return domain.KindVideo
	}
	return domain.KindOther
}

// Locator 把十进制坐标解析为位置。ok=false 表示结果是降级得到的 Unknown。
type Locator interface {
	Locate(ctx context.Context, lat, lon float64) (loc domain.Location, ok bool)
}

const exifDateLayout = "2006:01:02 15:04:05"

// errDegraded 用来阻止把降级结果写入持久化缓存。
var errDegraded = errors.New("media: degraded location")

// Extractor 负责单个文件的元数据抽取（图片：EXIF 日期 + GPS 位置；视频：mvhd 日期）。
type Extractor struct {
	Reader  ExifReader
	Locator Locator

	// Provider 参与 Media 缓存键：切换服务商后不复用旧的位置结果。
	Provider string

	// Media 缓存完整的 MediaRecord；Coords 缓存 DMS→十进制换算。都可为 nil。
	Media  cache.Store
	Coords cache.Store

	Log zerolog.Logger
}

// Extract 抽取单个文件。cached=true 表示结果直接来自 Media 缓存。
//
// - 非图片/视频：ErrUnsupported
// - 文件无法读取：返回底层错误
// - 缺 EXIF、缺 GPS、逆地理编码失败：均不是错误，位置降级为 Unknown
func (e *Extractor) Extract(ctx context.Context, f domain.MediaFile) (rec domain.MediaRecord, cached bool, err error) {
	kind := KindOf(f.AbsPath)
	if kind == domain.KindOther {
		return domain.MediaRecord{}, false, ErrUnsupported
	}

	key := cache.Key(f.AbsPath, strconv.FormatInt(f.ModTime.UnixNano(), 10), e.Provider)
	var fresh domain.MediaRecord
	rec, cached, err = cache.GetOrCompute(e.Media, key, func() (domain.MediaRecord, error) {
		r, degraded, err := e.extract(ctx, f, kind)
		fresh = r
		if err == nil && degraded {
			return r, errDegraded
		}
		return r, err
	})
	if errors.Is(err, errDegraded) {
		return fresh, false, nil
	}
	return rec, cached, err
}

func (e *Extractor) extract(ctx context.Context, f domain.MediaFile, kind domain.MediaKind) (rec domain.MediaRecord, degraded bool, err error) {
	rec = domain.MediaRecord{Path: f.AbsPath, Kind: kind, Location: domain.UnknownLocation()}
	if kind == domain.KindVideo {
		rec.Date, rec.DateSource = e.videoDate(f)
		return rec, false, nil
	}

	if e.Reader == nil {
		return rec, false, errors.New("media: 未配置 EXIF 读取器")
	}
	tags, err := e.Reader.Read(f.AbsPath)
	if err != nil {
		return rec, false, err
	}
	rec.Date, rec.DateSource = e.imageDate(f, tags)

	loc, ok := e.locate(ctx, f.AbsPath, tags)
	rec.Location = loc.Normalize()
	return rec, !ok, nil
}

// locate 返回位置；ok=false 仅在逆地理编码失败时出现（缺少 GPS 属于确定结果）。
func (e *Extractor) locate(ctx context.Context, path string, tags Tags) (domain.Location, bool) {
	if !tags.HasEXIF || !tags.HasGPS {
		e.Log.Info().Str("path", path).Msg("没有 GPS 地理标签（no geotagging）")
		return domain.UnknownLocation(), true
	}
	if !tags.HasCoords() {
		e.Log.Warn().Str("path", path).Msg("GPS 标签缺少经纬度（geotag missing coordinates）")
		return domain.UnknownLocation(), true
	}
	geo, err := e.decode(tags)
	if err != nil {
		e.Log.Warn().Err(err).Str("path", path).Msg("坐标换算失败")
		return domain.UnknownLocation(), true
	}
	if e.Locator == nil {
		return domain.UnknownLocation(), true
	}
	return e.Locator.Locate(ctx, geo.Lat, geo.Lon)
}

func (e *Extractor) decode(tags Tags) (GeoTag, error) {
	key := cache.Key(formatFloats(tags.Lat), tags.LatRef, formatFloats(tags.Lon), tags.LonRef)
	g, _, err := cache.GetOrCompute(e.Coords, key, func() (GeoTag, error) {
		return GeoTag{
			Lat: DMSToDecimal(tags.Lat, tags.LatRef),
			Lon: DMSToDecimal(tags.Lon, tags.LonRef),
		}, nil
	})
	return g, err
}

func (e *Extractor) imageDate(f domain.MediaFile, tags Tags) (domain.Date, string) {
	if s := strings.TrimSpace(tags.DateTimeOriginal); s != "" {
		t, err := time.ParseInLocation(exifDateLayout, s, time.Local)
		if err == nil {
			return domain.DateOf(t), domain.DateSourceEXIF
		}
		e.Log.Warn().Str("path", f.AbsPath).Str("value", s).Msg("DateTimeOriginal 无法解析，改用 mtime")
	}
	return mtimeDate(f), domain.DateSourceMtime
}

func (e *Extractor) videoDate(f domain.MediaFile) (domain.Date, string) {
	t, ok, err := VideoCreationTime(f.AbsPath)
	if err != nil {
		e.Log.Warn().Err(err).Str("path", f.AbsPath).Msg("读取视频创建时间失败，改用 mtime")
	}
	if ok {
		return domain.DateOf(t), domain.DateSourceMvhd
	}
	return mtimeDate(f), domain.DateSourceMtime
}

func mtimeDate(f domain.MediaFile) domain.Date {
	return domain.DateOf(f.ModTime.Local())
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
