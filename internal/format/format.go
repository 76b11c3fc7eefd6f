// Copyright (c) 2026 John Earle
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

// Package format renders byte counts, durations, and file counts as short
// human-readable strings for backup notifications.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// sizeUnits are the binary prefixes tried in order before falling back to Yi.
var sizeUnits = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi"}

// FormatSize renders n bytes with a binary prefix and one fractional digit,
// e.g. 1536 -> "1.5KiB".
func FormatSize(n int64) string {
	return FormatSizeSuffix(n, "B")
}

// FormatSizeSuffix is FormatSize with a caller-chosen unit suffix.
func FormatSizeSuffix(n int64, suffix string) string {
	v := float64(n)
	for _, unit := range sizeUnits {
		if math.Abs(v) < 1024 {
			return fmt.Sprintf("%3.1f%s%s", v, unit, suffix)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1fYi%s", v, suffix)
}

// FormatDuration renders an hours/minutes/seconds triple as e.g.
// "1 Hrs 5 Mins 30 Secs". Components equal to the literal "00" are omitted,
// so an all-zero duration yields "".
func FormatDuration(parts [3]string) string {
	var segs []string
	if parts[0] != "00" {
		segs = append(segs, wholeUnit(parts[0])+" Hrs")
	}
	if parts[1] != "00" {
		segs = append(segs, wholeUnit(parts[1])+" Mins")
	}
	if parts[2] != "00" {
		secs := strings.TrimSpace(parts[2])
		if f, err := strconv.ParseFloat(secs, 64); err == nil {
			secs = strconv.FormatInt(int64(math.Round(f)), 10)
		}
		segs = append(segs, secs+" Secs")
	}
	return strings.TrimSpace(strings.Join(segs, " "))
}

// wholeUnit drops leading zeros from an integer component ("05" -> "5").
// Anything that is not an integer is returned as given.
func wholeUnit(s string) string {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}

// FormatCount renders n with English thousands separators, e.g. "1,234,567".
func FormatCount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
