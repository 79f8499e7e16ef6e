package domain

import (
	"path/filepath"
	"strings"
)

const (
	StoreExt    = ".txt"
	JournalFile = "scan_history.json"
	MonitorFile = "monitor.yaml"
)

// Paths holds the output root and the bookkeeping files kept beside the stores
type Paths struct {
	RootDir     string
	JournalPath string
	MonitorPath string
}

func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:     rootDir,
		JournalPath: filepath.Join(rootDir, JournalFile),
		MonitorPath: filepath.Join(rootDir, MonitorFile),
	}
}

// StorePath resolves a store name against the root and adds the .txt extension
// when missing. Absolute paths are kept as given.
func (p *Paths) StorePath(name string) string {
	if !strings.HasSuffix(name, StoreExt) {
		name += StoreExt
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.RootDir, name)
}

// StoreName is the journal key for a store path: relative to the root when possible.
func (p *Paths) StoreName(path string) string {
	rel, err := filepath.Rel(p.RootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
