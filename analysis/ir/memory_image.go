// Copyright The bincheck Authors. All Rights Reserved.
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

package ir

import "bytes"

// A MemorySegment is a contiguous region of the binary's address space as
// loaded at runtime.
type MemorySegment struct {
	BaseAddress uint64
	Bytes       []byte
	ReadOnly    bool
}

// A RuntimeMemoryImage gives read access to the memory the binary maps at
// load time. Only read-only segments are meaningful to the analyses:
// values in writeable segments may change at runtime and are never trusted.
type RuntimeMemoryImage struct {
	Segments []MemorySegment
}

// segmentAt returns the segment containing addr, or nil.
func (m *RuntimeMemoryImage) segmentAt(addr uint64) *MemorySegment {
	for i := range m.Segments {
		seg := &m.Segments[i]
		if addr >= seg.BaseAddress && addr < seg.BaseAddress+uint64(len(seg.Bytes)) {
			return seg
		}
	}
	return nil
}

// ReadString reads a NUL-terminated string from a read-only segment at
// addr. It returns false if addr is not mapped read-only or no terminator
// is found inside the segment.
func (m *RuntimeMemoryImage) ReadString(addr uint64) (string, bool) {
	seg := m.segmentAt(addr)
	if seg == nil || !seg.ReadOnly {
		return "", false
	}
	data := seg.Bytes[addr-seg.BaseAddress:]
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", false
	}
	return string(data[:end]), true
}

// IsReadOnly reports whether addr lies in a read-only segment.
func (m *RuntimeMemoryImage) IsReadOnly(addr uint64) bool {
	seg := m.segmentAt(addr)
	return seg != nil && seg.ReadOnly
}
