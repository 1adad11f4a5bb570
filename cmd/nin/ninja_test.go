// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"testing"

	"github.com/nin-build/nin"
)

type fakeFiles map[string]string

func (f fakeFiles) ReadFile(path string) ([]byte, error) {
	return []byte(f[path]), nil
}

func TestResolveTargets_DefaultsWhenNoArgs(t *testing.T) {
	files := fakeFiles{"build.ninja": "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n"}
	g, err := nin.NewResolver(files, nil).Resolve("build.ninja")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	targets, err := resolveTargets(g, nil)
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if len(targets) != 1 || targets[0].Path != "out.o" {
		t.Fatalf("got %+v, want [out.o]", targets)
	}
}

func TestResolveTargets_EmptyManifestIsNotError(t *testing.T) {
	files := fakeFiles{"build.ninja": ""}
	g, err := nin.NewResolver(files, nil).Resolve("build.ninja")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	targets, err := resolveTargets(g, nil)
	if err != nil {
		t.Fatalf("resolveTargets: %v, want no error for an empty manifest with nothing to build", err)
	}
	if len(targets) != 0 {
		t.Fatalf("got %+v, want no targets", targets)
	}
}

func TestResolveTargets_UnknownTargetHasHint(t *testing.T) {
	files := fakeFiles{"build.ninja": "rule cc\n  command = touch $out\nbuild out.o: cc in.c\n"}
	g, err := nin.NewResolver(files, nil).Resolve("build.ninja")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, err = resolveTargets(g, []string{"otu.o"})
	var ute *nin.UnknownTargetError
	if u, ok := err.(*nin.UnknownTargetError); ok {
		ute = u
	}
	if ute == nil {
		t.Fatalf("got %v, want *nin.UnknownTargetError", err)
	}
	if ute.DidYouMean != "out.o" {
		t.Fatalf("got hint %q, want \"out.o\"", ute.DidYouMean)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&nin.UnknownTargetError{Target: "x"}, 2},
		{&nin.ParseError{Path: "p", Reason: "bad"}, 2},
		{&nin.LexError{Path: "p", Reason: "bad"}, 2},
		{&nin.CommandFailedError{Edge: "x", ExitCode: 1}, 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Errorf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
