package preprocess

import (
	"os"
	"path/filepath"
	"slices"
)

// resolve maps an include token to a file path. Absolute paths are used as is.
// Relative paths are looked up next to the root module first and then in each
// include directory; if no candidate exists the root-relative one is returned so
// the read reports it as missing.
func (p *Processor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	first := filepath.Join(p.baseDir, path)
	if fileExists(first) {
		return first
	}
	for _, dir := range p.IncludeDirs {
		cand := filepath.Join(dir, path)
		if fileExists(cand) {
			return cand
		}
	}
	return first
}

// include processes the module named by an include token on line `line` of `from`
func (p *Processor) include(path, from string, line int) (string, error) {
	return p.processModule(p.resolve(path), from, line)
}

// enter marks a module as being processed and reports an error when it is
// already on the include stack or the stack is too deep
func (p *Processor) enter(path, from string, line int) (leave func(), err error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	if !p.AllowCycles && p.active[key] {
		return nil, newError(from, line, ErrIncludeCycle, "%s includes itself", path)
	}
	if p.MaxDepth > 0 && len(p.stack) >= p.MaxDepth {
		return nil, newError(from, line, ErrIncludeDepth, "%s is nested %d levels deep", path, len(p.stack))
	}

	p.active[key] = true
	p.stack = append(p.stack, key)
	return func() {
		p.stack = p.stack[:len(p.stack)-1]
		if !slices.Contains(p.stack, key) {
			delete(p.active, key)
		}
	}, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
