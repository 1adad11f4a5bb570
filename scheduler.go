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
	"io"
	"sync"
)

// edgeStatus is one edge's position in the state machine described in the
// scheduler's design: Pending -> Ready -> {Skipped | Running -> {Done |
// Failed}}. A Pending edge can also go straight to Dropped, if an edge it
// depends on fails or is itself dropped, so it can never become Ready.
type edgeStatus int

const (
	statePending edgeStatus = iota
	stateReady
	stateRunning
	stateDone
	stateFailed
	stateSkipped
	stateDropped
)

// Scheduler brings a set of requested targets up to date: it walks the
// build graph backwards from the targets, and runs each edge whose inputs
// are newer than its outputs, honoring a bound on concurrently running
// edges.
type Scheduler struct {
	graph       *Graph
	disk        DiskInterface
	runner      Runner
	status      Status
	parallelism int
	stderr      io.Writer

	outMu sync.Mutex
}

func NewScheduler(graph *Graph, disk DiskInterface, runner Runner, status Status, parallelism int, stderr io.Writer) *Scheduler {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Scheduler{
		graph:       graph,
		disk:        disk,
		runner:      runner,
		status:      status,
		parallelism: parallelism,
		stderr:      stderr,
	}
}

// schedState is the mutable, mutex-guarded state shared by all workers for
// one Build call: per-edge status and pending-input counters, the ready
// queue, and the first error seen (which triggers a graceful drain).
type schedState struct {
	mu         sync.Mutex
	statusOf   map[*Edge]edgeStatus
	pending    map[*Edge]int
	dependents map[*Edge][]*Edge
	remaining  int
	failed     error

	ready chan *Edge
}

// Build runs every edge needed to produce targets, in dependency order,
// bounded by s.parallelism concurrently Running edges. It returns the
// first CommandFailedError (wrapping a SpawnError when the command could
// not be started) or MissingSourceError encountered, if any; on failure, edges already running are allowed to finish but no new
// edge is dispatched (no keep-going).
func (s *Scheduler) Build(targets []*Node) error {
	edges := s.collectEdges(targets)
	if len(edges) == 0 {
		return nil
	}

	st := &schedState{
		statusOf:   make(map[*Edge]edgeStatus, len(edges)),
		pending:    make(map[*Edge]int, len(edges)),
		dependents: make(map[*Edge][]*Edge, len(edges)),
		remaining:  len(edges),
		ready:      make(chan *Edge, len(edges)),
	}
	for _, e := range edges {
		st.statusOf[e] = statePending
	}
	for _, e := range edges {
		count := 0
		for _, in := range e.Inputs {
			if p := in.InEdge; p != nil {
				if _, ok := st.statusOf[p]; ok {
					count++
					st.dependents[p] = append(st.dependents[p], e)
				}
			}
		}
		st.pending[e] = count
	}

	s.status.PlanHasTotalEdges(len(edges))
	s.status.BuildStarted()

	var initial []*Edge
	for _, e := range edges {
		if st.pending[e] == 0 {
			st.statusOf[e] = stateReady
			initial = append(initial, e)
		}
	}
	for _, e := range initial {
		st.ready <- e
	}

	var wg sync.WaitGroup
	for i := 0; i < s.parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(st)
		}()
	}
	wg.Wait()

	s.status.BuildFinished()
	return st.failed
}

func (s *Scheduler) worker(st *schedState) {
	for e := range st.ready {
		st.mu.Lock()
		failed := st.failed != nil
		st.mu.Unlock()
		if failed {
			s.finishOne(st, e, nil)
			continue
		}
		s.runEdge(st, e)
	}
}

func (s *Scheduler) runEdge(st *schedState, e *Edge) {
	stale, err := s.checkStale(e)
	if err != nil {
		s.fail(st, err)
		s.finishOne(st, e, nil)
		return
	}
	if !stale {
		st.mu.Lock()
		st.statusOf[e] = stateSkipped
		st.mu.Unlock()
		s.status.BuildEdgeFinished(e, true)
		s.finishOne(st, e, []*Edge{e})
		return
	}

	st.mu.Lock()
	st.statusOf[e] = stateRunning
	st.mu.Unlock()
	s.status.BuildEdgeStarted(e)

	result, err := s.runner.Run(e.Command)
	if err != nil {
		st.mu.Lock()
		st.statusOf[e] = stateFailed
		st.mu.Unlock()
		s.writeOutput(result.Output)
		s.status.BuildEdgeFinished(e, false)
		s.fail(st, &CommandFailedError{Edge: edgeLabel(e), Command: e.Command, Err: err})
		s.finishOne(st, e, nil)
		return
	}
	s.writeOutput(result.Output)
	if result.ExitCode != 0 {
		st.mu.Lock()
		st.statusOf[e] = stateFailed
		st.mu.Unlock()
		s.status.BuildEdgeFinished(e, false)
		s.fail(st, &CommandFailedError{Edge: edgeLabel(e), Command: e.Command, ExitCode: result.ExitCode})
		s.finishOne(st, e, nil)
		return
	}
	// The command may have rewritten its outputs: forget their cached mtimes
	// so that dependents compare against what is on disk now.
	for _, o := range e.Outputs {
		o.statDone = false
	}
	st.mu.Lock()
	st.statusOf[e] = stateDone
	st.mu.Unlock()
	s.status.BuildEdgeFinished(e, true)
	s.finishOne(st, e, []*Edge{e})
}

// finishOne decrements the shared remaining counter and, for each edge in
// completed (normally just e itself, once it reached Done or Skipped),
// unblocks dependents whose pending count reaches zero. completed is nil
// when e is being dropped during a drain (it failed, or never ran because
// an ancestor did): e will never unblock anything, so every edge that
// transitively depends on e can also never run. Those are dropped here
// too, recursively, so remaining still reaches zero and st.ready is always
// eventually closed instead of leaving a worker blocked forever.
func (s *Scheduler) finishOne(st *schedState, e *Edge, completed []*Edge) {
	st.mu.Lock()
	failed := st.failed != nil

	var newlyReady []*Edge
	for _, c := range completed {
		for _, d := range st.dependents[c] {
			if st.statusOf[d] == stateDropped {
				continue
			}
			st.pending[d]--
			if st.pending[d] != 0 {
				continue
			}
			if failed {
				// The build already failed elsewhere: d would become
				// Ready, but nothing will ever dispatch it, so drop it
				// (and its own dependents) instead of leaving it stuck.
				st.statusOf[d] = stateDropped
				st.remaining--
				st.remaining -= s.dropDependentsLocked(st, d)
				continue
			}
			st.statusOf[d] = stateReady
			newlyReady = append(newlyReady, d)
		}
	}
	st.remaining--
	if completed == nil {
		st.remaining -= s.dropDependentsLocked(st, e)
	}
	remaining := st.remaining
	st.mu.Unlock()

	for _, d := range newlyReady {
		st.ready <- d
	}
	if remaining == 0 {
		close(st.ready)
	}
}

// dropDependentsLocked marks every edge transitively depending on e, that is
// still only blocked waiting on it (statePending), as Dropped: it will never
// become Ready, since e itself never completed. Edges already Ready or
// beyond are left alone; they are independently accounted for when a worker
// eventually pulls them off st.ready and finds the build already failed.
// Must be called with st.mu held; returns the number of edges dropped, to
// fold into st.remaining.
func (s *Scheduler) dropDependentsLocked(st *schedState, e *Edge) int {
	count := 0
	var visit func(*Edge)
	visit = func(edge *Edge) {
		for _, d := range st.dependents[edge] {
			if st.statusOf[d] != statePending {
				continue
			}
			st.statusOf[d] = stateDropped
			count++
			visit(d)
		}
	}
	visit(e)
	return count
}

func (s *Scheduler) fail(st *schedState, err error) {
	st.mu.Lock()
	if st.failed == nil {
		st.failed = err
	}
	st.mu.Unlock()
}

func (s *Scheduler) writeOutput(b []byte) {
	if len(b) == 0 || s.stderr == nil {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = s.stderr.Write(b)
}

// checkStale implements the §4.5 staleness rule: missing or older-than-
// inputs output means stale (dispatch); otherwise up to date (skip). Inputs
// are checked first and unconditionally, so a genuinely missing source is
// always reported, even for an edge whose output also happens to be
// missing (which would otherwise short-circuit as "obviously stale").
func (s *Scheduler) checkStale(e *Edge) (bool, error) {
	var inMtime TimeStamp
	for _, in := range e.Inputs {
		if err := in.Stat(s.disk); err != nil {
			return false, err
		}
		if !in.Exists() {
			if in.InEdge == nil {
				return false, &MissingSourceError{Path: in.Path, For: edgeLabel(e)}
			}
			continue
		}
		if in.Mtime() > inMtime {
			inMtime = in.Mtime()
		}
	}

	var outMtime TimeStamp
	haveOut := false
	for _, o := range e.Outputs {
		if err := o.Stat(s.disk); err != nil {
			return false, err
		}
		if !o.Exists() {
			return true, nil
		}
		if !haveOut || o.Mtime() < outMtime {
			outMtime = o.Mtime()
			haveOut = true
		}
	}
	return inMtime > outMtime, nil
}

// collectEdges walks the graph backwards from targets, collecting every
// edge that must be considered, each exactly once. No cycle detection is
// performed: the walk itself stops at edges already seen, but edges on a
// cycle never become ready, so Build does not return for a cyclic graph.
func (s *Scheduler) collectEdges(targets []*Node) []*Edge {
	seen := map[*Edge]bool{}
	var order []*Edge
	var visit func(n *Node)
	visit = func(n *Node) {
		e := n.InEdge
		if e == nil || seen[e] {
			return
		}
		seen[e] = true
		for _, in := range e.Inputs {
			visit(in)
		}
		order = append(order, e)
	}
	for _, t := range targets {
		visit(t)
	}
	return order
}

func edgeLabel(e *Edge) string {
	if len(e.ExplicitOutputs) != 0 {
		return e.ExplicitOutputs[0].Path
	}
	return e.Rule
}
