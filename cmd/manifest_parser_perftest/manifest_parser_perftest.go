// Copyright 2014 Google Inc. All Rights Reserved.
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

// Measures lexer/parser/resolver throughput on a synthetic manifest, so a
// change to any of the three can be checked for a performance regression
// without a real, multi-megabyte build.ninja on hand.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nin-build/nin"
)

// fakeDisk hands back the same in-memory manifest for every read, so the
// benchmark measures parsing and resolution, not I/O.
type fakeDisk struct {
	manifest []byte
}

func (f fakeDisk) ReadFile(path string) ([]byte, error) {
	return f.manifest, nil
}

func generateManifest(numEdges int) []byte {
	var b strings.Builder
	b.WriteString("rule cc\n  command = touch $out\n  description = CC $out\n")
	for i := 0; i < numEdges; i++ {
		fmt.Fprintf(&b, "build out%d.o: cc in%d.c\n", i, i)
	}
	return []byte(b.String())
}

func run(disk fakeDisk) error {
	r := nin.NewResolver(disk, nil)
	_, err := r.Resolve("build.ninja")
	return err
}

func mainImpl() error {
	numEdges := flag.Int("edges", 50000, "number of synthetic build edges")
	repetitions := flag.Int("reps", 5, "number of repetitions")
	flag.Parse()

	disk := fakeDisk{manifest: generateManifest(*numEdges)}

	times := make([]time.Duration, 0, *repetitions)
	for i := 0; i < *repetitions; i++ {
		start := time.Now()
		if err := run(disk); err != nil {
			return fmt.Errorf("resolving synthetic manifest: %w", err)
		}
		delta := time.Since(start)
		fmt.Printf("%s\n", delta)
		times = append(times, delta)
	}

	min, max, total := times[0], times[0], times[0]
	for _, t := range times[1:] {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
		total += t
	}
	fmt.Printf("min %s  max %s  avg %s\n", min, max, total/time.Duration(len(times)))
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "manifest_parser_perftest: %s\n", err)
		os.Exit(1)
	}
}
