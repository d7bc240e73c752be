package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/services"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync cycles",
	Long: `Shows the most recent sync cycles with their outcome and the number of
articles archived, downloaded and uploaded. At most 100 cycles are kept.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of cycles to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if openState == nil {
		return errors.New("state store not configured")
	}
	if historyLimit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidInput, historyLimit)
	}

	store, err := openState(expandHome(configDir))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	runs, err := store.SyncRunStore().History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No sync cycles recorded yet.")
		return nil
	}

	cmd.Println(renderHistory(runs))
	return nil
}

// renderHistory formats runs as a table, failed cycles in the error colour.
func renderHistory(runs []domain.SyncRun) string {
	styles := newTableStyles(defaultPalette())
	t := newTable(styles, func(row, col int) lipgloss.Style {
		if col != 2 || row < 0 || row >= len(runs) {
			return styles.Cell
		}
		if runs[row].Success {
			return styles.Success
		}
		return styles.Error
	}, "Started", "Duration", "Result", "Archived", "Downloaded", "Uploaded")

	for _, run := range runs {
		result := "ok"
		if !run.Success {
			result = "failed: " + run.Error
		}
		t.Row(
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			services.HumanDuration(run.Duration()),
			result,
			strconv.Itoa(run.Archived),
			strconv.Itoa(run.Downloaded),
			strconv.Itoa(run.Uploaded),
		)
	}
	return t.Render()
}
