// Package mediatest 生成测试用的最小媒体文件（EXIF TIFF、MP4 mvhd），不依赖真实素材。
package mediatest

import (
	"bytes"
	"encoding/binary"
	"time"
)

const mp4EpochOffset = 2082844800

// EXIF 描述测试用的最小 EXIF（小端 TIFF）内容。
type EXIF struct {
	DateTimeOriginal string
	GPS              bool
	Lat, Lon         [3][2]uint32 // 分子/分母
	LatRef, LonRef   string
	OmitLon          bool
}

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    []byte // <=4 字节内联，否则放到数据区
}

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5
)

// TIFF 生成 IFD0 → (Exif IFD, GPS IFD) 的最小 TIFF；goexif 按 TIFF 头识别，与扩展名无关。
func TIFF(fx EXIF) []byte {
	le := binary.LittleEndian

	ascii := func(s string) []byte { return append([]byte(s), 0) }
	rat := func(v [3][2]uint32) []byte {
		b := make([]byte, 24)
		for i := 0; i < 3; i++ {
			le.PutUint32(b[i*8:], v[i][0])
			le.PutUint32(b[i*8+4:], v[i][1])
		}
		return b
	}

	// 布局：header(8) | IFD0 | ExifIFD | ExifData | GPSIFD | GPSData
	ifdSize := func(n int) uint32 { return uint32(2 + 12*n + 4) }

	var exifEntries []ifdEntry
	if fx.DateTimeOriginal != "" {
		v := ascii(fx.DateTimeOriginal)
		exifEntries = append(exifEntries, ifdEntry{0x9003, tiffASCII, uint32(len(v)), v})
	}
	var gpsEntries []ifdEntry
	if fx.GPS {
		gpsEntries = append(gpsEntries,
			ifdEntry{0x0001, tiffASCII, 2, ascii(fx.LatRef)},
			ifdEntry{0x0002, tiffRational, 3, rat(fx.Lat)},
		)
		if !fx.OmitLon {
			gpsEntries = append(gpsEntries,
				ifdEntry{0x0003, tiffASCII, 2, ascii(fx.LonRef)},
				ifdEntry{0x0004, tiffRational, 3, rat(fx.Lon)},
			)
		}
	}

	dataSize := func(es []ifdEntry) uint32 {
		var n uint32
		for _, e := range es {
			if len(e.value) > 4 {
				n += uint32(len(e.value))
			}
		}
		return n
	}

	ifd0Entries := 1
	if fx.GPS {
		ifd0Entries = 2
	}
	ifd0Off := uint32(8)
	exifOff := ifd0Off + ifdSize(ifd0Entries)
	exifDataOff := exifOff + ifdSize(len(exifEntries))
	gpsOff := exifDataOff + dataSize(exifEntries)
	gpsDataOff := gpsOff + ifdSize(len(gpsEntries))

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, ifd0Off)

	writeIFD := func(es []ifdEntry, dataOff uint32) []byte {
		var data bytes.Buffer
		_ = binary.Write(&buf, le, uint16(len(es)))
		for _, e := range es {
			_ = binary.Write(&buf, le, e.tag)
			_ = binary.Write(&buf, le, e.typ)
			_ = binary.Write(&buf, le, e.count)
			if len(e.value) > 4 {
				_ = binary.Write(&buf, le, dataOff+uint32(data.Len()))
				data.Write(e.value)
				continue
			}
			inline := make([]byte, 4)
			copy(inline, e.value)
			buf.Write(inline)
		}
		_ = binary.Write(&buf, le, uint32(0))
		return data.Bytes()
	}

	ptr := func(v uint32) []byte {
		b := make([]byte, 4)
		le.PutUint32(b, v)
		return b
	}
	ifd0 := []ifdEntry{{0x8769, tiffLong, 1, ptr(exifOff)}}
	if fx.GPS {
		ifd0 = append(ifd0, ifdEntry{0x8825, tiffLong, 1, ptr(gpsOff)})
	}
	writeIFD(ifd0, 0)
	buf.Write(writeIFD(exifEntries, exifDataOff))
	if fx.GPS {
		buf.Write(writeIFD(gpsEntries, gpsDataOff))
	}
	return buf.Bytes()
}

// MP4 生成只含 moov/mvhd(v0) 的最小容器；creation 为 0 表示不写时间戳。
func MP4(creation time.Time) []byte {
	var ct uint32
	if !creation.IsZero() {
		ct = uint32(creation.Unix() + mp4EpochOffset)
	}
	return MP4Raw(ct)
}

// MP4Raw 与 MP4 相同，但直接给出 1904 纪元的秒数。
func MP4Raw(creation uint32) []byte {
	be := binary.BigEndian
	payload := make([]byte, 100)
	// version=0, flags=0
	be.PutUint32(payload[4:], creation)
	be.PutUint32(payload[8:], creation)
	be.PutUint32(payload[12:], 1000) // timescale
	be.PutUint32(payload[16:], 5000) // duration
	be.PutUint32(payload[20:], 0x00010000)
	be.PutUint16(payload[24:], 0x0100)
	be.PutUint32(payload[96:], 2) // next_track_ID

	var mvhd bytes.Buffer
	_ = binary.Write(&mvhd, be, uint32(8+len(payload)))
	mvhd.WriteString("mvhd")
	mvhd.Write(payload)

	var moov bytes.Buffer
	_ = binary.Write(&moov, be, uint32(8+mvhd.Len()))
	moov.WriteString("moov")
	moov.Write(mvhd.Bytes())
	return moov.Bytes()
}

// Paris 是 48°51'24"N 2°21'3"E，拍摄于 date（YYYY:MM:DD HH:MM:SS）。
func Paris(date string) EXIF {
	return EXIF{
		DateTimeOriginal: date,
		GPS:              true,
		Lat:              [3][2]uint32{{48, 1}, {51, 1}, {24, 1}},
		LatRef:           "N",
		Lon:              [3][2]uint32{{2, 1}, {21, 1}, {3, 1}},
		LonRef:           "E",
	}
}
