package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	eventeditor "gdide/event_editor"
	"gdide/javascript"
	"gdide/typedef"
)

// BuildResult is the outcome of a build preview.
type BuildResult struct {
	Name      string
	Code      string
	Variables map[string]float64
	Duration  time.Duration
	Err       error
}

// Summary returns a one line description for the status bar.
func (r BuildResult) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("Build of %s failed: %v", r.Name, r.Err)
	}
	names := make([]string, 0, len(r.Variables))
	for n := range r.Variables {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", n, r.Variables[n]))
	}
	return fmt.Sprintf("Built %s in %s %s", r.Name, r.Duration.Round(time.Millisecond), strings.Join(parts, " "))
}

// BuildRunner generates and runs the code of a scene on its own goroutine.
// It only ever reads a snapshot of the events, so the editor keeps working
// on the live tree meanwhile. Logs go through the console, which the UI
// drains every frame.
type BuildRunner struct {
	console *javascript.Console
	results chan BuildResult
	running atomic.Bool
	timeout time.Duration
}

// NewBuildRunner creates a runner. Scripts running longer than timeout
// are interrupted.
func NewBuildRunner(console *javascript.Console, timeout time.Duration) *BuildRunner {
	if timeout <= 0 {
		timeout = javascript.DefaultTimeout
	}
	return &BuildRunner{
		console: console,
		results: make(chan BuildResult, 1),
		timeout: timeout,
	}
}

// Running reports whether a build is in progress.
func (b *BuildRunner) Running() bool { return b.running.Load() }

// Start builds snapshot in the background. It returns false when a build
// is already running. snapshot must not be shared with the editor.
func (b *BuildRunner) Start(name string, snapshot *eventeditor.Tree, scene *typedef.Scene, meta *typedef.MetadataHolder) bool {
	if !b.running.CompareAndSwap(false, true) {
		return false
	}
	scene = scene.Clone()
	go func() {
		defer b.running.Store(false)
		b.results <- b.build(name, snapshot, scene, meta)
	}()
	return true
}

func (b *BuildRunner) build(name string, snapshot *eventeditor.Tree, scene *typedef.Scene, meta *typedef.MetadataHolder) BuildResult {
	start := time.Now()
	code := eventeditor.GenerateCode(snapshot, scene, meta)

	rt := javascript.NewSceneRuntime(b.console)
	for _, obj := range scene.Objects {
		rt.CreateObject(obj, 0, 0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	err := javascript.Execute(ctx, code, name, rt, 1)

	vars := make(map[string]float64)
	for _, v := range rt.Variables() {
		vars[v] = rt.Variable(v)
	}
	return BuildResult{Name: name, Code: code, Variables: vars, Duration: time.Since(start), Err: err}
}

// Poll returns the result of a finished build, if any.
func (b *BuildRunner) Poll() (BuildResult, bool) {
	select {
	case r := <-b.results:
		return r, true
	default:
		return BuildResult{}, false
	}
}
