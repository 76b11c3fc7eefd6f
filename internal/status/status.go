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

// Package status maps a Duplicati result keyword to the colour and icon used
// when presenting a report.
package status

import (
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned for a result keyword with no presentation.
var ErrUnknownStatus = errors.New("unknown status")

// Presentation is how a result status is shown.
type Presentation struct {
	Color int    // 0xRRGGBB
	Icon  string // Discord emoji shortcode
}

// Hex returns the colour as "#RRGGBB".
func (p Presentation) Hex() string {
	return fmt.Sprintf("#%06X", p.Color)
}

var presentations = map[string]Presentation{
	"Success": {Color: 0x7CFC00, Icon: ":white_check_mark:"},
	"Unknown": {Color: 0x909090, Icon: ":grey_question:"},
	"Warning": {Color: 0xFFBF00, Icon: ":warning:"},
	"Error":   {Color: 0xFF0000, Icon: ":no_entry:"},
	"FATAL":   {Color: 0xFF0000, Icon: ":fire:"},
}

// Lookup returns the presentation for a status keyword. Matching is exact.
func Lookup(status string) (Presentation, error) {
	p, ok := presentations[status]
	if !ok {
		return Presentation{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return p, nil
}
