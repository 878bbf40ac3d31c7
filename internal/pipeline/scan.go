package pipeline

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// dataFileExt is the one recognized extension for generated record files.
const dataFileExt = ".json"

// ScanCorpus enumerates every data file under root, recursing into all
// subdirectories. Paths come back sorted lexicographically so repeated runs
// process the corpus in the same order. Directories that do not exist or
// cannot be read are treated as empty.
func ScanCorpus(root string) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), dataFileExt) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// PreviewOptions bounds a diagnostic corpus preview.
type PreviewOptions struct {
	MaxDepth       int // directory levels below root to descend into
	MaxFilesPerDir int // files previewed per directory
	HeadLines      int // raw content lines returned per file
}

// FilePreview is the head of one selected file. Diagnostics only — ingestion
// decisions never consult previews.
type FilePreview struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

// PreviewCorpus returns head previews for a bounded selection of data files
// under root, honoring the depth and per-directory caps in opts.
func PreviewCorpus(root string, opts PreviewOptions) []FilePreview {
	perDir := make(map[string]int)
	var previews []FilePreview

	for _, path := range ScanCorpus(root) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		depth := strings.Count(rel, string(filepath.Separator))
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			continue
		}
		dir := filepath.Dir(path)
		if opts.MaxFilesPerDir > 0 && perDir[dir] >= opts.MaxFilesPerDir {
			continue
		}
		perDir[dir]++
		previews = append(previews, FilePreview{Path: path, Lines: headLines(path, opts.HeadLines)})
	}
	return previews
}

func headLines(path string, n int) []string {
	if n <= 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < n {
		lines = append(lines, scanner.Text())
	}
	return lines
}
