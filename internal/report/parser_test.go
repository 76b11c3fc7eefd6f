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

package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleReport = `DeletedFiles: 0
DeletedFolders: 0
ModifiedFiles: 0
ExaminedFiles: 100
OpenedFiles: 10
AddedFiles: 10
SizeOfModifiedFiles: 0
SizeOfAddedFiles: 1024
SizeOfExaminedFiles: 1048576
SizeOfOpenedFiles: 1024
NotProcessedFiles: 0
AddedFolders: 1
TooLargeFiles: 0
FilesWithError: 0
ModifiedFolders: 0
ModifiedSymlinks: 0
AddedSymlinks: 0
DeletedSymlinks: 0
PartialBackup: False
Dryrun: False
MainOperation: Backup
CompactResults: null
VacuumResults: null
DeleteResults:
    DeletedSetsActualLength: 0
    MainOperation: Delete
ParsedResult: Success
Version: 2.0.7.1 (2.0.7.1_beta_2023-05-25)
EndTime: 2024-01-01T00:05:30 (UTC)
BeginTime: 2024-01-01T00:00:00 (UTC)
Duration: 00:05:30
MessagesActualLength: 12
WarningsActualLength: 0
ErrorsActualLength: 0
Messages: [
    2024-01-01 00:00:00 +00 - [Information-Duplicati.Library.Main.Controller-StartingOperation]: The operation Backup has started
]`

func withLines(extra ...string) string {
	return sampleReport + "\n" + strings.Join(extra, "\n")
}

// TestParse_Fields verifies field extraction and post-processing.
func TestParse_Fields(t *testing.T) {
	rep, err := NewParser(0).Parse(sampleReport)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.Status() != "Success" {
		t.Errorf("Status() = %q, want Success", rep.Status())
	}
	// The indented MainOperation under DeleteResults is not a data line.
	if rep.Operation() != "Backup" {
		t.Errorf("Operation() = %q, want Backup", rep.Operation())
	}
	if rep.BeginTime != "2024-01-01T00:00:00" {
		t.Errorf("BeginTime = %q, want 2024-01-01T00:00:00", rep.BeginTime)
	}
	if rep.Fields["BeginTime"] != rep.BeginTime {
		t.Errorf("Fields[BeginTime] = %q, want truncated value", rep.Fields["BeginTime"])
	}
	if rep.Duration != [3]string{"00", "05", "30"} {
		t.Errorf("Duration = %v, want [00 05 30]", rep.Duration)
	}
	if rep.Fields["Version"] != "2.0.7.1 (2.0.7.1_beta_2023-05-25)" {
		t.Errorf("Version = %q", rep.Fields["Version"])
	}
	if _, ok := rep.Fields["CompactResults"]; ok {
		t.Error("unrecognised field CompactResults was recorded")
	}
	if n, err := rep.Fields.Int("SizeOfExaminedFiles"); err != nil || n != 1048576 {
		t.Errorf("Int(SizeOfExaminedFiles) = %d, %v; want 1048576", n, err)
	}
	if len(rep.Errors) != 0 || rep.ErrorText() != "" {
		t.Errorf("expected no errors, got %v", rep.Errors)
	}
}

// TestParse_LastWriteWins verifies a repeated key keeps its final value.
func TestParse_LastWriteWins(t *testing.T) {
	rep, err := NewParser(0).Parse(withLines("ParsedResult: Warning"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Status() != "Warning" {
		t.Errorf("Status() = %q, want Warning", rep.Status())
	}
}

// TestParse_ExactKeyMatch verifies that a recognised name prefixing a longer
// key does not record the longer key.
func TestParse_ExactKeyMatch(t *testing.T) {
	rep, err := NewParser(0).Parse(withLines("DeletedFilesTotal: 99", "DurationText: long"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rep.Fields["DeletedFilesTotal"]; ok {
		t.Error("DeletedFilesTotal should not be recorded")
	}
	if rep.Fields["DeletedFiles"] != "0" {
		t.Errorf("DeletedFiles = %q, want 0", rep.Fields["DeletedFiles"])
	}
	if rep.Duration != [3]string{"00", "05", "30"} {
		t.Errorf("Duration = %v, want [00 05 30]", rep.Duration)
	}
}

// TestParse_CRLF verifies Windows line endings are tolerated.
func TestParse_CRLF(t *testing.T) {
	rep, err := NewParser(0).Parse(strings.ReplaceAll(sampleReport, "\n", "\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Status() != "Success" {
		t.Errorf("Status() = %q, want Success", rep.Status())
	}
	if rep.Duration[2] != "30" {
		t.Errorf("seconds = %q, want 30", rep.Duration[2])
	}
}

// TestParse_DuplicateErrors verifies path errors are de-duplicated.
func TestParse_DuplicateErrors(t *testing.T) {
	rep, err := NewParser(0).Parse(withLines(
		"Access to the path /a/b",
		"Access to the path /a/b",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := rep.ErrorText()
	if got := strings.Count(text, "/a/b"); got != 1 {
		t.Errorf("error text contains /a/b %d times, want 1: %q", got, text)
	}
	if text != " Access to path /a/b" {
		t.Errorf("ErrorText() = %q", text)
	}
}

// TestParse_ErrorCap verifies at most two distinct errors are kept, in
// first-seen order, counting only distinct values.
func TestParse_ErrorCap(t *testing.T) {
	rep, err := NewParser(0).Parse(withLines(
		`2024-01-01 [Warning-FileAccessError]: Access to the path 'C:\one' is denied.`,
		`2024-01-01 [Warning-FileAccessError]: Access to the path 'C:\one' is denied.`,
		`2024-01-01 [Warning-FileAccessError]: Access to the path 'C:\two' is denied.`,
		`2024-01-01 [Warning-FileAccessError]: Access to the path 'C:\three' is denied.`,
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{`'C:\one' is denied.`, `'C:\two' is denied.`}
	if diff := cmp.Diff(want, rep.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
	if lines := strings.Split(rep.ErrorText(), "\n"); len(lines) != 2 {
		t.Errorf("ErrorText has %d lines, want 2", len(lines))
	}
}

// TestParse_ConfigurableErrorCap verifies the cap follows the parser setting.
func TestParse_ConfigurableErrorCap(t *testing.T) {
	rep, err := NewParser(3).Parse(withLines(
		"Access to the path /1",
		"Access to the path /2",
		"Access to the path /3",
		"Access to the path /4",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"/1", "/2", "/3"}, rep.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

// TestParse_DataLineNotAnError verifies a data line is never read as an error.
func TestParse_DataLineNotAnError(t *testing.T) {
	rep, err := NewParser(0).Parse(withLines("Version: Access to the path /x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Errors) != 0 {
		t.Errorf("Errors = %v, want none", rep.Errors)
	}
}

// TestParse_DaysInDuration verifies a day count is folded into hours.
func TestParse_DaysInDuration(t *testing.T) {
	raw := strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 1.02:00:07.5", 1)
	rep, err := NewParser(0).Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Duration != [3]string{"26", "00", "07.5"} {
		t.Errorf("Duration = %v, want [26 00 07.5]", rep.Duration)
	}
}

// TestParse_Incomplete verifies missing or malformed required fields fail.
func TestParse_Incomplete(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing Duration", strings.Replace(sampleReport, "Duration: 00:05:30\n", "", 1)},
		{"missing ParsedResult", strings.Replace(sampleReport, "ParsedResult: Success\n", "", 1)},
		{"missing SizeOfAddedFiles", strings.Replace(sampleReport, "SizeOfAddedFiles: 1024\n", "", 1)},
		{"two-part Duration", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 05:30", 1)},
		{"four-part Duration", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 00:00:05:30", 1)},
		{"non-numeric seconds", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 00:05:xx", 1)},
		{"NaN seconds", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 00:05:NaN", 1)},
		{"Inf seconds", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 00:05:Inf", 1)},
		{"negative Inf seconds", strings.Replace(sampleReport, "Duration: 00:05:30", "Duration: 00:05:-Inf", 1)},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := NewParser(0).Parse(tt.raw)
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("err = %v, want ErrIncomplete", err)
			}
			if rep != nil {
				t.Errorf("expected nil report, got %+v", rep)
			}
		})
	}
}

// TestFieldsInt verifies integer field access errors.
func TestFieldsInt(t *testing.T) {
	f := Fields{"AddedFiles": "12", "ModifiedFiles": "lots"}

	if n, err := f.Int("AddedFiles"); err != nil || n != 12 {
		t.Errorf("Int(AddedFiles) = %d, %v; want 12", n, err)
	}
	if _, err := f.Int("ModifiedFiles"); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Int(ModifiedFiles) err = %v, want ErrIncomplete", err)
	}
	if _, err := f.Int("DeletedFiles"); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Int(DeletedFiles) err = %v, want ErrIncomplete", err)
	}
}

// TestReportStats verifies counts and sizes are read from their fields.
func TestReportStats(t *testing.T) {
	rep, err := NewParser(0).Parse(sampleReport)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got, err := rep.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{
		Examined:     100,
		Added:        10,
		SizeExamined: 1048576,
		SizeAdded:    1024,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}

	rep.Fields["SizeOfAddedFiles"] = "1k"
	if _, err := rep.Stats(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Stats with bad size err = %v, want ErrIncomplete", err)
	}
}
