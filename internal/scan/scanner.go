package scan

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/parse"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// ScanInputs walks root for dialogue logs the splitter can read. Directories
// listed in skip (typically the output root) are not descended into, and
// files produced by earlier runs are ignored.
func ScanInputs(root string, skip ...string) ([]FileInfo, error) {
	skipDirs := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipDirs[abs] = struct{}{}
		}
	}

	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if abs, err := filepath.Abs(path); err == nil {
				if _, ok := skipDirs[abs]; ok && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !parse.Supported(path) || isOutput(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isOutput(path string) bool {
	if filepath.Base(path) == chunk.StatsFile {
		return true
	}
	_, ok := chunk.Number(path)
	return ok
}

// Namespaces returns the namespace directories under outputRoot that hold a
// statistics file, i.e. the outputs of completed runs.
func Namespaces(outputRoot string) ([]string, error) {
	des, err := os.ReadDir(outputRoot)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(outputRoot, de.Name())
		if _, err := os.Stat(filepath.Join(dir, chunk.StatsFile)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
