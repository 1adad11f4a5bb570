// Copyright 2016 Google Inc. All Rights Reserved.
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
	"sync"

	"github.com/charmbracelet/log"
)

// Status tracks the progress of a build: edges starting and finishing, and
// diagnostic messages that don't belong to any one edge.
type Status interface {
	PlanHasTotalEdges(total int)
	BuildEdgeStarted(edge *Edge)
	BuildEdgeFinished(edge *Edge, success bool)
	BuildStarted()
	BuildFinished()

	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// LogStatus is the default Status: it forwards diagnostics to a
// charmbracelet/log logger and otherwise stays quiet, since a command's own
// stdout/stderr is what a build tool's user actually watches.
type LogStatus struct {
	log *log.Logger

	mu    sync.Mutex
	total int
	done  int
}

func NewLogStatus(logger *log.Logger) *LogStatus {
	return &LogStatus{log: logger}
}

func (s *LogStatus) PlanHasTotalEdges(total int) {
	s.mu.Lock()
	s.total = total
	s.mu.Unlock()
}

func (s *LogStatus) BuildEdgeStarted(edge *Edge) {
	s.log.Debugf("starting: %s", edgeDisplayName(edge))
}

func (s *LogStatus) BuildEdgeFinished(edge *Edge, success bool) {
	s.mu.Lock()
	s.done++
	done, total := s.done, s.total
	s.mu.Unlock()
	if !success {
		return
	}
	s.log.Infof("[%d/%d] %s", done, total, edgeDisplayName(edge))
}

func edgeDisplayName(edge *Edge) string {
	if edge.Description != "" {
		return edge.Description
	}
	return edge.Command
}

func (s *LogStatus) BuildStarted() {
}

func (s *LogStatus) BuildFinished() {
}

func (s *LogStatus) Info(msg string, args ...interface{}) {
	s.log.Infof(msg, args...)
}

func (s *LogStatus) Warning(msg string, args ...interface{}) {
	s.log.Warnf(msg, args...)
}

func (s *LogStatus) Error(msg string, args ...interface{}) {
	s.log.Errorf(msg, args...)
}
