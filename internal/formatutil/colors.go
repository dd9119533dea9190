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

// Package formatutil manipulates string colors for terminal output.
package formatutil

import (
	"fmt"

	"golang.org/x/term"
)

var (
	// Bold formats its arguments in bold when stdout is a terminal.
	Bold = color("\033[1m%s\033[0m")
	// Faint formats its arguments faintly when stdout is a terminal.
	Faint = color("\033[2m%s\033[0m")
	// Red formats its arguments in red when stdout is a terminal.
	Red = color("\033[1;31m%s\033[0m")
	// Green formats its arguments in green when stdout is a terminal.
	Green = color("\033[1;32m%s\033[0m")
	// Yellow formats its arguments in yellow when stdout is a terminal.
	Yellow = color("\033[1;33m%s\033[0m")
)

func color(colorString string) func(...interface{}) string {
	return func(args ...interface{}) string {
		if term.IsTerminal(1) {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}

// Sanitize removes all escape sequences from a string so that log output
// cannot be forged by analyzed binaries.
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}
