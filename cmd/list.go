package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/retrochat/ichat-recover/archive"
	"github.com/retrochat/ichat-recover/extract"
	"github.com/retrochat/ichat-recover/plistdec"
	"github.com/retrochat/ichat-recover/stats"
)

// ListCommand analyses a source directory without rendering anything:
// participants, file counts, and recoverable message counts.
func ListCommand() *cobra.Command {
	var (
		reportDir string
		topN      int
	)

	cmd := &cobra.Command{
		Use:   "list [source dir]",
		Short: "List participants and message counts without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir := args[0]
			logger := slog.Default()

			groups, err := archive.Scan(sourceDir, logger)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				return fmt.Errorf("no .ichat files found in %s", sourceDir)
			}

			counts := make(map[string]int)
			for _, group := range groups {
				total := 0
				for _, path := range group.Files {
					n, err := countMessages(path)
					if err != nil {
						logger.Warn("skipping archive", "file", filepath.Base(path), "err", err)
						continue
					}
					total += n
				}
				counts[group.Participant] = total
				fmt.Printf("%s: %d files, %d messages\n", group.Participant, len(group.Files), total)
			}

			fmt.Printf("\nTop %d participants by message count:\n", topN)
			stats.PrettyPrintTop(counts, topN)

			if reportDir != "" {
				if err := saveCSVReport(reportDir, groups, counts); err != nil {
					return fmt.Errorf("save CSV report: %w", err)
				}
				fmt.Printf("\nReport saved to directory: %s\n", reportDir)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&reportDir, "output", "o", "", "Output directory for a CSV report (no report when empty)")
	cmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top participants to display")

	return cmd
}

func countMessages(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read archive: %w", err)
	}
	root, err := plistdec.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("decode archive: %w", err)
	}
	records, err := extract.Messages(root)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func saveCSVReport(dir string, groups []archive.Group, counts map[string]int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(dir, "report_participants.csv"))
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Participant", "Files", "Messages"}); err != nil {
		file.Close()
		return err
	}
	for _, group := range groups {
		record := []string{
			group.Participant,
			strconv.Itoa(len(group.Files)),
			strconv.Itoa(counts[group.Participant]),
		}
		if err := writer.Write(record); err != nil {
			file.Close()
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
