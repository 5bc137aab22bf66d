package main

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the batch summary table for a completed report tree",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	root := outputRoot
	if root == "" {
		return errors.New("report: --output is required")
	}

	summaries, err := loadSummaries(root)
	if err != nil {
		return err
	}
	report.Render(cmd.OutOrStdout(), summaries)
	return nil
}

// loadSummaries walks <root>/<rank>/<uuid>/summary.json and decodes
// every summary it finds, mirroring the layout report.Manager.NewAttempt
// lays down.
func loadSummaries(root string) ([]report.Summary, error) {
	var summaries []report.Summary
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "summary.json" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "report: opening %s", path)
		}
		defer f.Close()

		var s report.Summary
		if err := json.NewDecoder(f).Decode(&s); err != nil {
			return errors.Wrapf(err, "report: decoding %s", path)
		}
		summaries = append(summaries, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
