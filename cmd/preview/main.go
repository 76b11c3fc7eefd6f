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

// Duplicati Notifications — Report Preview Command
//
// Standalone CLI tool that parses a saved Duplicati report and prints the
// notification it would produce, styled for the terminal. Useful for checking
// a layout or diagnosing a report that failed to parse.
//
// Usage:
//
//	go run ./cmd/preview/ --name <job> [--file report.txt] [--layout compact] [--max-errors 2]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lloydws/duplicati-notifications/internal/notify"
	"github.com/lloydws/duplicati-notifications/internal/preview"
	"github.com/lloydws/duplicati-notifications/internal/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	nameFlag := flag.String("name", "", "Backup job name shown in the title (required)")
	fileFlag := flag.String("file", "-", "Report file to read; - reads stdin")
	layoutFlag := flag.String("layout", "conditional", "Notification layout: conditional or compact")
	maxErrorsFlag := flag.Int("max-errors", report.DefaultMaxErrors, "Maximum distinct path errors to show")
	flag.Parse()

	if *nameFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --name is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	layout, err := notify.ParseLayout(*layoutFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := readReport(*fileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read report: %v\n", err)
		os.Exit(1)
	}

	rep, err := report.NewParser(*maxErrorsFlag).Parse(string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec, err := notify.NewBuilder(layout, notify.Author{}).Build(rep, *nameFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := preview.NewRenderer(os.Stdout).Render(rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readReport(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
