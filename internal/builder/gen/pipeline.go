package gen

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/qobs-build/wgslpp/internal/msg"
	"github.com/qobs-build/wgslpp/internal/shader"
	"golang.org/x/sync/errgroup"
)

// BuildState represents the state of a build target for incremental builds
type BuildState struct {
	Modules     map[string]string `json:"modules,omitempty"` // module path -> hash
	Fingerprint string            `json:"fingerprint"`       // macros, include dirs and generator settings
	Output      string            `json:"output"`
}

type target struct {
	name   string
	shader *shader.Builder
}

// buildJob is a single target that has to be (re)built
type buildJob struct {
	target      target
	out         string
	fingerprint string
}

type jobResult struct {
	modules []string
}

// Pipeline preprocesses every target, hands the text to emit and writes the result
// to <outDir>/<name><ext>. Targets whose modules and inputs are unchanged since the
// last run are skipped.
type Pipeline struct {
	// W receives progress output, os.Stdout if nil
	W io.Writer
	// Salt adds generator settings to every target's fingerprint
	Salt func() string

	generator  string
	ext        string
	emit       func(src string) ([]byte, error)
	targets    map[string]target
	outDir     string
	stateFile  string
	buildState map[string]*BuildState
	jobs       int
	hashCache  map[string]string
	rebuilt    []string
}

func NewPipeline(generator, ext string, emit func(src string) ([]byte, error)) *Pipeline {
	return &Pipeline{
		generator:  generator,
		ext:        ext,
		emit:       emit,
		targets:    make(map[string]target),
		buildState: make(map[string]*BuildState),
		jobs:       runtime.NumCPU(),
		hashCache:  make(map[string]string),
	}
}

func (g *Pipeline) BuildFile() string {
	return "wgslpp_build_state.json"
}

func (g *Pipeline) AddTarget(name string, b *shader.Builder) {
	g.targets[name] = target{name: name, shader: b}
}

// Rebuilt returns the names of the targets built by the last Invoke, sorted
func (g *Pipeline) Rebuilt() []string {
	return slices.Clone(g.rebuilt)
}

func (g *Pipeline) writer() io.Writer {
	if g.W == nil {
		return os.Stdout
	}
	return g.W
}

// Invoke performs the actual build
func (g *Pipeline) Invoke(outDir string) error {
	g.outDir = outDir
	g.stateFile = filepath.Join(outDir, g.BuildFile())
	g.rebuilt = nil
	clear(g.hashCache)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := g.loadBuildState(); err != nil {
		msg.Warn("failed to load build state: %v", err)
	}

	jobs := g.planBuild()
	if len(jobs) == 0 {
		fmt.Fprintln(g.writer(), "wgslpp: no work to do.")
		return nil
	}

	if err := g.executeBuild(jobs); err != nil {
		return err
	}

	if err := g.saveBuildState(); err != nil {
		msg.Warn("failed to save build state: %v", err)
	}

	return nil
}

func (g *Pipeline) fingerprint(t target) string {
	fp := t.shader.Fingerprint() + " " + g.generator
	if g.Salt != nil {
		fp += " " + g.Salt()
	}
	return fp
}

// planBuild determines which targets have to be rebuilt
func (g *Pipeline) planBuild() []buildJob {
	names := make([]string, 0, len(g.targets))
	for name := range g.targets {
		names = append(names, name)
	}
	slices.Sort(names)

	var jobs []buildJob
	for _, name := range names {
		t := g.targets[name]
		job := buildJob{
			target:      t,
			out:         filepath.Join(g.outDir, filepath.FromSlash(name)+g.ext),
			fingerprint: g.fingerprint(t),
		}
		if g.isTargetDirty(job, g.buildState[name]) {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// isTargetDirty checks if a target's output is missing or any of its inputs changed
func (g *Pipeline) isTargetDirty(job buildJob, state *BuildState) bool {
	if state == nil || len(state.Modules) == 0 {
		return true
	}

	// reason 1: output file is missing
	if _, err := os.Stat(job.out); os.IsNotExist(err) {
		return true
	}

	// reason 2: macros, include dirs or generator settings changed
	if state.Fingerprint != job.fingerprint || state.Output != job.out {
		return true
	}

	// reason 3: a module that was read last time changed or is gone; a new
	// include can only appear through a changed module
	for module, prevHash := range state.Modules {
		hash, err := g.fileHash(module)
		if err != nil || hash != prevHash {
			return true
		}
	}

	return false
}

// executeBuild runs the planned jobs and updates the build state
func (g *Pipeline) executeBuild(jobs []buildJob) error {
	pb := msg.NewProgressBar(int64(len(jobs)), 0, g.writer())
	results := make([]jobResult, len(jobs))

	err := runJobs(jobs, func(i int, job buildJob) error {
		modules, err := g.runBuildJob(job)
		if err != nil {
			return fmt.Errorf("%s: %w", job.target.name, err)
		}
		results[i] = jobResult{modules: modules}
		pb.Step()
		return nil
	}, g.jobs)
	if err != nil {
		fmt.Fprintln(g.writer())
		return fmt.Errorf("build failed: %w", err)
	}
	pb.Finish()

	for i, job := range jobs {
		if err := g.updateBuildState(job, results[i].modules); err != nil {
			msg.Warn("failed to update build state for target %s: %v", job.target.name, err)
		}
		g.rebuilt = append(g.rebuilt, job.target.name)
	}

	return nil
}

// runBuildJob preprocesses and emits a single target, returning the modules it read
func (g *Pipeline) runBuildJob(job buildJob) ([]string, error) {
	out, err := job.target.shader.BuildOutput()
	if err != nil {
		return nil, err
	}
	data, err := g.emit(out.Source)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(job.out), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(job.out, data, 0644); err != nil {
		return nil, err
	}
	msg.Debug("%s %s", g.generator, job.out)
	return out.Modules, nil
}

// runJobs runs jobs in parallel
func runJobs[T any](jobs []T, jobfunc func(i int, job T) error, limit int) error {
	if len(jobs) == 0 {
		return nil
	}

	eg, _ := errgroup.WithContext(context.Background())
	eg.SetLimit(limit)

	for i, job := range jobs {
		eg.Go(func() error {
			return jobfunc(i, job)
		})
	}

	return eg.Wait()
}

// loadBuildState loads the previous build state from disk
func (g *Pipeline) loadBuildState() error {
	f, err := os.Open(g.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // no previous state, that's fine
		}
		return err
	}
	defer f.Close()
	return json.NewDecoder(bufio.NewReader(f)).Decode(&g.buildState)
}

// saveBuildState saves the current build state to disk
func (g *Pipeline) saveBuildState() error {
	data, err := json.MarshalIndent(g.buildState, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(g.stateFile, data, 0644)
}

// fileHash computes the SHA256 hash of a file with an in-memory cache
func (g *Pipeline) fileHash(path string) (string, error) {
	if hash, ok := g.hashCache[path]; ok {
		return hash, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	hexHash := hex.EncodeToString(hash.Sum(nil))
	g.hashCache[path] = hexHash
	return hexHash, nil
}

// updateBuildState records the module hashes of a target after a successful build
func (g *Pipeline) updateBuildState(job buildJob, modules []string) error {
	state := &BuildState{
		Modules:     make(map[string]string, len(modules)),
		Fingerprint: job.fingerprint,
		Output:      job.out,
	}

	for _, module := range modules {
		delete(g.hashCache, module) // may have been hashed while planning
		hash, err := g.fileHash(module)
		if err != nil {
			return fmt.Errorf("failed to hash module %s: %w", module, err)
		}
		state.Modules[module] = hash
	}

	g.buildState[job.target.name] = state
	return nil
}
