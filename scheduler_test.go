// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nin

import (
	"bytes"
	"testing"
)

// fakeDisk is an in-memory DiskInterface for scheduler tests: mtimes are
// set explicitly rather than touching the real filesystem.
type fakeDisk struct {
	mtimes map[string]TimeStamp
	files  map[string]string
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{mtimes: map[string]TimeStamp{}, files: map[string]string{}}
}

func (d *fakeDisk) Stat(path string) (TimeStamp, error) {
	return d.mtimes[path], nil
}

func (d *fakeDisk) ReadFile(path string) ([]byte, error) {
	return []byte(d.files[path]), nil
}

func (d *fakeDisk) touch(path string, t TimeStamp) {
	d.mtimes[path] = t
}

func quietStatus() Status { return &nullStatus{} }

type nullStatus struct{}

func (*nullStatus) PlanHasTotalEdges(int)          {}
func (*nullStatus) BuildEdgeStarted(*Edge)         {}
func (*nullStatus) BuildEdgeFinished(*Edge, bool)  {}
func (*nullStatus) BuildStarted()                  {}
func (*nullStatus) BuildFinished()                 {}
func (*nullStatus) Info(string, ...interface{})    {}
func (*nullStatus) Warning(string, ...interface{}) {}
func (*nullStatus) Error(string, ...interface{})   {}

func buildGraph(t *testing.T, manifest string) (*Graph, *fakeDisk) {
	t.Helper()
	disk := newFakeDisk()
	disk.files["build.ninja"] = manifest
	g, err := NewResolver(disk, nil).Resolve("build.ninja")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g, disk
}

// TestScheduler_EmptyManifest covers the empty-manifest scenario: no
// targets, nothing runs, Build succeeds trivially.
func TestScheduler_EmptyManifest(t *testing.T) {
	g, disk := buildGraph(t, "")
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build(nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 0 {
		t.Fatalf("expected no commands to run, got %v", runner.Invoked)
	}
}

// TestScheduler_SkipsUpToDate covers the skip-up-to-date scenario: an
// output newer than its input is left alone.
func TestScheduler_SkipsUpToDate(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	disk.touch("in.c", 1)
	disk.touch("out.o", 2)
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build([]*Node{g.LookupNode("out.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 0 {
		t.Fatalf("expected the up-to-date edge to be skipped, ran %v", runner.Invoked)
	}
}

// TestScheduler_RebuildsOnTouch covers the rebuild-on-touch scenario: an
// input newer than the output triggers the edge.
func TestScheduler_RebuildsOnTouch(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	disk.touch("in.c", 5)
	disk.touch("out.o", 1)
	runner := NewFakeRunner()
	runner.Script("touch out.o", RunResult{ExitCode: 0})
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build([]*Node{g.LookupNode("out.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 1 || runner.Invoked[0] != "touch out.o" {
		t.Fatalf("got %v, want one run of \"touch out.o\"", runner.Invoked)
	}
}

// TestScheduler_RebuildsMissingOutput covers the missing-output case: an
// output that doesn't exist yet is always stale.
func TestScheduler_RebuildsMissingOutput(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	disk.touch("in.c", 1)
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build([]*Node{g.LookupNode("out.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 1 {
		t.Fatalf("expected the edge with a missing output to run, got %v", runner.Invoked)
	}
}

// TestScheduler_ChainRebuild covers the chain-rebuild scenario: touching
// the root source must cascade through every downstream edge.
func TestScheduler_ChainRebuild(t *testing.T) {
	g, disk := buildGraph(t,
		"rule cc\n  command = touch $out\n"+
			"build mid.o: cc in.c\n"+
			"build out.o: cc mid.o\n")
	disk.touch("in.c", 10)
	disk.touch("mid.o", 1) // stale relative to in.c
	// out.o is left unset (missing), so it's unconditionally stale too.
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build([]*Node{g.LookupNode("out.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 2 {
		t.Fatalf("got %v, want both mid.o and out.o to rebuild", runner.Invoked)
	}
	if runner.Invoked[0] != "touch mid.o" || runner.Invoked[1] != "touch out.o" {
		t.Fatalf("got %v, want dependency order [touch mid.o, touch out.o]", runner.Invoked)
	}
}

// TestScheduler_FailedEdgeStopsDependents covers the failed-rule scenario:
// a failing edge must fail the build without dispatching its dependents,
// while unrelated edges already queued may still finish (no keep-going,
// but a graceful drain rather than an abrupt kill).
func TestScheduler_FailedEdgeStopsDependents(t *testing.T) {
	g, disk := buildGraph(t,
		"rule cc\n  command = touch $out\n"+
			"build mid.o: cc in.c\n"+
			"build out.o: cc mid.o\n")
	disk.touch("in.c", 10)
	runner := NewFakeRunner()
	runner.Script("touch mid.o", RunResult{ExitCode: 1})
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	err := s.Build([]*Node{g.LookupNode("out.o")})
	if err == nil {
		t.Fatalf("expected an error when an edge's command fails")
	}
	var cfe *CommandFailedError
	if c, ok := err.(*CommandFailedError); ok {
		cfe = c
	}
	if cfe == nil || cfe.ExitCode != 1 {
		t.Fatalf("got %v, want a CommandFailedError{ExitCode: 1}", err)
	}
	for _, cmd := range runner.Invoked {
		if cmd == "touch out.o" {
			t.Fatalf("dependent edge ran after its input failed: %v", runner.Invoked)
		}
	}
}

// TestScheduler_MissingSourceError covers an input that is neither a build
// output nor present on disk.
func TestScheduler_MissingSourceError(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	err := s.Build([]*Node{g.LookupNode("out.o")})
	var mse *MissingSourceError
	if m, ok := err.(*MissingSourceError); ok {
		mse = m
	}
	if mse == nil {
		t.Fatalf("got %v, want a MissingSourceError", err)
	}
}

// TestScheduler_OutputIsWritten checks that a command's captured combined
// output reaches the configured writer.
func TestScheduler_OutputIsWritten(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	disk.touch("in.c", 1)
	runner := NewFakeRunner()
	runner.Script("touch out.o", RunResult{ExitCode: 0, Output: []byte("building out.o\n")})
	var buf bytes.Buffer
	s := NewScheduler(g, disk, runner, quietStatus(), 1, &buf)
	if err := s.Build([]*Node{g.LookupNode("out.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if buf.String() != "building out.o\n" {
		t.Fatalf("got %q", buf.String())
	}
}

// TestScheduler_DefaultTargetsUsedWhenNoneRequested covers building with no
// explicit targets: the graph's defaults (or, absent those, its roots) are
// used.
func TestScheduler_DefaultTargetsUsedWhenNoneRequested(t *testing.T) {
	g, disk := buildGraph(t, "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n")
	disk.touch("in.c", 1)
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 1, nil)
	if err := s.Build(g.DefaultNodes()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 1 {
		t.Fatalf("got %v, want the sole root edge to run", runner.Invoked)
	}
}

// TestScheduler_BoundedParallelism exercises -j>1 with an independent pair
// of edges; both must still run exactly once.
func TestScheduler_BoundedParallelism(t *testing.T) {
	g, disk := buildGraph(t,
		"rule cc\n  command = touch $out\n"+
			"build a.o: cc a.c\n"+
			"build b.o: cc b.c\n")
	disk.touch("a.c", 1)
	disk.touch("b.c", 1)
	runner := NewFakeRunner()
	s := NewScheduler(g, disk, runner, quietStatus(), 4, nil)
	if err := s.Build([]*Node{g.LookupNode("a.o"), g.LookupNode("b.o")}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.Invoked) != 2 {
		t.Fatalf("got %v, want both edges to run once each", runner.Invoked)
	}
}
