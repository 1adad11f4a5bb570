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

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nin-build/nin"
)

// options holds the command-line knobs, parsed with the standard flag
// package in the canonical tool's own style: a handful of flags plus
// positional targets.
type options struct {
	inputFile   string
	parallelism int
	verbose     bool
	quiet       bool
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: nin [options] [targets...]\n\n")
	fmt.Fprintf(os.Stderr, "if targets are unspecified, builds the default target(s).\n\n")
	flag.PrintDefaults()
}

func readFlags() options {
	opts := options{}
	flag.StringVar(&opts.inputFile, "f", "build.ninja", "specify input build file")
	flag.IntVar(&opts.parallelism, "j", nin.GuessParallelism(), "run N jobs in parallel")
	flag.BoolVar(&opts.verbose, "v", false, "show each edge (its description, or else its command) as it starts")
	flag.BoolVar(&opts.verbose, "verbose", false, "show each edge (its description, or else its command) as it starts")
	flag.BoolVar(&opts.quiet, "quiet", false, "don't show progress status, just command output")
	flag.Usage = usage
	flag.Parse()
	if opts.verbose && opts.quiet {
		fatalf("can't use both -v and --quiet")
	}
	return opts
}

func newLogger(opts options) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	switch {
	case opts.quiet:
		logger.SetLevel(log.WarnLevel)
	case opts.verbose:
		logger.SetLevel(log.DebugLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// resolveTargets turns the command-line target arguments into graph nodes,
// falling back to the graph's default nodes when none were given. A manifest
// with no positional targets and no root nodes at all (an empty build.ninja)
// is not an error: there is simply nothing to build.
func resolveTargets(g *nin.Graph, args []string) ([]*nin.Node, error) {
	if len(args) == 0 {
		return g.DefaultNodes(), nil
	}
	targets := make([]*nin.Node, 0, len(args))
	for _, a := range args {
		n := g.LookupNode(a)
		if n == nil {
			hint := ""
			if s := g.SpellcheckNode(a); s != nil {
				hint = s.Path
			}
			return nil, &nin.UnknownTargetError{Target: a, DidYouMean: hint}
		}
		targets = append(targets, n)
	}
	return targets, nil
}

// exitCode maps a build error onto the process exit code the shell sees,
// per the taxonomy in errors.go: a target that can't be resolved or a
// manifest that won't parse is a usage error (2); anything that fails
// while actually running commands is a build failure (1).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ute *nin.UnknownTargetError
	var pe *nin.ParseError
	var le *nin.LexError
	if errors.As(err, &ute) || errors.As(err, &pe) || errors.As(err, &le) {
		return 2
	}
	return 1
}

func Main() int {
	opts := readFlags()
	logger := newLogger(opts)

	disk := nin.NewRealDiskInterface()
	resolver := nin.NewResolver(disk, logger.Warnf)

	graph, err := resolver.Resolve(opts.inputFile)
	if err != nil {
		errorf("%s", err)
		return exitCode(err)
	}

	targets, err := resolveTargets(graph, flag.Args())
	if err != nil {
		errorf("%s", err)
		return exitCode(err)
	}

	status := nin.NewLogStatus(logger)
	sched := nin.NewScheduler(graph, disk, nin.NewRealRunner(), status, opts.parallelism, &ansiStrippingWriter{w: os.Stderr})
	if err := sched.Build(targets); err != nil {
		errorf("%s", err)
		return exitCode(err)
	}
	return 0
}
