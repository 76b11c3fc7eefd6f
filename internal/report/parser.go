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

// Package report parses the plain-text result report that Duplicati posts
// after a backup job into a map of known fields and a short list of path
// access errors.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ErrIncomplete is returned when a report lacks a field the notification
// needs, or a field is present but malformed.
var ErrIncomplete = errors.New("report incomplete")

const (
	// DefaultMaxErrors is how many distinct path errors are kept.
	DefaultMaxErrors = 2

	fieldSep    = ": "
	errorMarker = "Access to the path "
	errorPrefix = " Access to path "
)

// FieldNames is the closed set of field names recognised at the start of a
// report line.
var FieldNames = []string{
	"DeletedFiles", "DeletedFolders", "ModifiedFiles", "ExaminedFiles",
	"OpenedFiles", "AddedFiles", "NotProcessedFiles", "FilesWithError",
	"AddedFolders", "TooLargeFiles", "ModifiedFolders",
	"SizeOfModifiedFiles", "SizeOfAddedFiles", "SizeOfExaminedFiles",
	"SizeOfOpenedFiles",
	"ModifiedSymlinks", "AddedSymlinks", "DeletedSymlinks",
	"PartialBackup", "Dryrun", "MainOperation", "ParsedResult",
	"Version", "EndTime", "BeginTime", "Duration",
	"MessagesActualLength", "WarningsActualLength", "ErrorsActualLength",
}

// RequiredFields must all be present for a notification to be built.
var RequiredFields = []string{
	"ParsedResult", "MainOperation", "BeginTime", "Duration",
	"ExaminedFiles", "AddedFiles", "ModifiedFiles", "DeletedFiles",
	"SizeOfExaminedFiles", "SizeOfAddedFiles", "SizeOfModifiedFiles",
}

var knownFields = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FieldNames))
	for _, name := range FieldNames {
		m[name] = struct{}{}
	}
	return m
}()

// Fields maps a recognised field name to its raw value.
type Fields map[string]string

// Int returns the named field parsed as a base-10 integer.
func (f Fields) Int(name string) (int64, error) {
	v, ok := f[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrIncomplete, name)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrIncomplete, name, v)
	}
	return n, nil
}

// Report is the parsed form of one Duplicati result message.
type Report struct {
	Fields Fields

	// BeginTime is the BeginTime field with its trailing parenthetical removed.
	BeginTime string

	// Duration holds the hours, minutes and seconds components of Duration.
	Duration [3]string

	// Errors are the distinct path errors in first-seen order, capped.
	Errors []string
}

// Status returns the ParsedResult field.
func (r *Report) Status() string { return r.Fields["ParsedResult"] }

// Operation returns the MainOperation field.
func (r *Report) Operation() string { return r.Fields["MainOperation"] }

// ErrorText renders Errors one per line, ready for display.
func (r *Report) ErrorText() string {
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = errorPrefix + e
	}
	return strings.Join(lines, "\n")
}

// Stats are the file counts and byte sizes a report carries.
type Stats struct {
	Examined, Added, Modified, Deleted    int64
	SizeExamined, SizeAdded, SizeModified int64
}

// Stats reads the numeric count and size fields.
func (r *Report) Stats() (Stats, error) {
	var s Stats
	for _, v := range []struct {
		name string
		dst  *int64
	}{
		{"ExaminedFiles", &s.Examined},
		{"AddedFiles", &s.Added},
		{"ModifiedFiles", &s.Modified},
		{"DeletedFiles", &s.Deleted},
		{"SizeOfExaminedFiles", &s.SizeExamined},
		{"SizeOfAddedFiles", &s.SizeAdded},
		{"SizeOfModifiedFiles", &s.SizeModified},
	} {
		n, err := r.Fields.Int(v.name)
		if err != nil {
			return Stats{}, err
		}
		*v.dst = n
	}
	return s, nil
}

// Parser extracts Reports from raw text. A Parser is safe for concurrent use.
type Parser struct {
	maxErrors int
}

// NewParser creates a parser keeping at most maxErrors path errors.
// maxErrors <= 0 selects DefaultMaxErrors.
func NewParser(maxErrors int) *Parser {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Parser{maxErrors: maxErrors}
}

// Parse scans raw line by line. Lines beginning with a recognised field name
// are data lines; other lines are checked for a path access error.
func (p *Parser) Parse(raw string) (*Report, error) {
	fields := make(Fields)
	var found []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if hasFieldPrefix(line) {
			key, value, ok := strings.Cut(line, fieldSep)
			if !ok {
				continue
			}
			// A name that merely prefixes the key is not a match.
			if _, known := knownFields[key]; !known {
				continue
			}
			fields[key] = value
			slog.Debug("parsed report field", "field", key)
			continue
		}

		if _, path, ok := strings.Cut(line, errorMarker); ok {
			found = append(found, path)
			slog.Warn("found path error in report", "path", path)
		}
	}

	rep := &Report{
		Fields: fields,
		Errors: firstDistinct(found, p.maxErrors),
	}

	if missing := missingFields(fields); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	begin, _, _ := strings.Cut(fields["BeginTime"], "(")
	rep.BeginTime = strings.TrimSpace(begin)
	fields["BeginTime"] = rep.BeginTime

	dur, err := splitDuration(fields["Duration"])
	if err != nil {
		return nil, err
	}
	rep.Duration = dur

	return rep, nil
}

func hasFieldPrefix(line string) bool {
	for _, name := range FieldNames {
		if strings.HasPrefix(line, name) {
			return true
		}
	}
	return false
}

func missingFields(fields Fields) []string {
	var missing []string
	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// firstDistinct returns up to limit distinct values of in, in first-seen order.
func firstDistinct(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, v := range in {
		if len(out) == limit {
			break
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// splitDuration splits "HH:MM:SS.fffffff" into its three components. A day
// count ("d.HH:MM:SS") is folded into the hours component.
func splitDuration(raw string) ([3]string, error) {
	var out [3]string
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return out, fmt.Errorf("%w: Duration %q does not have three components", ErrIncomplete, raw)
	}
	hours, err := totalHours(parts[0])
	if err != nil {
		return out, fmt.Errorf("%w: Duration hours %q", ErrIncomplete, parts[0])
	}
	parts[0] = hours
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return out, fmt.Errorf("%w: Duration minutes %q", ErrIncomplete, parts[1])
	}
	if secs, err := strconv.ParseFloat(parts[2], 64); err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return out, fmt.Errorf("%w: Duration seconds %q", ErrIncomplete, parts[2])
	}
	copy(out[:], parts)
	return out, nil
}

func totalHours(s string) (string, error) {
	days, hours, hasDays := strings.Cut(s, ".")
	if !hasDays {
		_, err := strconv.Atoi(s)
		return s, err
	}
	d, err := strconv.Atoi(days)
	if err != nil {
		return "", err
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d", d*24+h), nil
}
