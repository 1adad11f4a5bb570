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
	"errors"
	"os"
)

// TimeStamp is a file modification time, in the same units as
// time.Time.UnixMicro. Zero means the file does not exist; a negative value
// is never produced (a real stat error is returned alongside, not encoded
// as a sentinel).
type TimeStamp int64

// FileReader reads manifest and include/subninja file contents. It is the
// only capability the lexer/parser/resolver pipeline needs from disk.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// DiskInterface is the scheduler's sole filesystem dependency: mtime
// lookups for staleness checks. The core never writes files; that is the
// spawned command's job.
type DiskInterface interface {
	FileReader
	// Stat returns the file's modification time, or 0 if it does not exist.
	// A non-nil error indicates a real stat failure (permissions, etc), not
	// a missing file.
	Stat(path string) (TimeStamp, error)
}

// RealDiskInterface implements DiskInterface against the actual filesystem.
type RealDiskInterface struct{}

func NewRealDiskInterface() RealDiskInterface {
	return RealDiskInterface{}
}

func (RealDiskInterface) Stat(path string) (TimeStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return TimeStamp(info.ModTime().UnixMicro()), nil
}

func (RealDiskInterface) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
