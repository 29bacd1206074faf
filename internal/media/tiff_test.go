package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/PMC/internal/media/mediatest"
)

func parisFixture() mediatest.EXIF {
	return mediatest.Paris("2024:01:02 10:30:00")
}

func buildTIFF(fx mediatest.EXIF) []byte { return mediatest.TIFF(fx) }

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("写入测试文件失败：%v", err)
	}
	return p
}
