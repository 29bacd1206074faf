package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/PMC/internal/domain"
)

// Options 控制扫描范围。
type Options struct {
	// Recursive 为 false 时只看 root 的直接子文件（默认的平铺目录模式）。
	Recursive bool

	// ExcludeDirs 为相对 root 的路径（若是绝对路径，则按绝对路径处理）。
	// 只有严格位于 root 之下的条目生效：等于 root 或包含 root 的条目被忽略，
	// 否则 output 包含 input 时整个输入都会被排除。
	ExcludeDirs []string
}

// ListMedia 列出 root 下的候选文件（不按扩展名过滤：类型判定交给抽取阶段，以便在报告里给出跳过原因）。
//
// 规则（硬约束）：
// - 隐藏目录（以 . 开头）整体跳过；隐藏文件照常列出并标记 Hidden，由上层记为 skipped
// - 只做 stat（DirEntry.Info），不读文件内容
// - 输出按 RelPath 排序
func ListMedia(root string, opts Options) ([]domain.MediaFile, error) {
	root = filepath.Clean(root)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	excluded := buildExcluded(root, opts.ExcludeDirs)

	files := make([]domain.MediaFile, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		hidden := strings.HasPrefix(d.Name(), ".")
		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if hidden || !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				// 扫描期间被删除：忽略。
				return nil
			}
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		name := d.Name()
		files = append(files, domain.MediaFile{
			AbsPath: path,
			RelPath: rel,
			Name:    name,
			Ext:     strings.ToLower(filepath.Ext(name)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hidden:  hidden,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出：作为按日期稳定排序时的次序基准。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			x = filepath.Clean(x)
		} else {
			// x 是相对路径：相对 root。
			x = filepath.Clean(filepath.Join(root, x))
		}
		if x == root || !isUnder(x, root) {
			continue
		}
		excluded = append(excluded, x)
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
