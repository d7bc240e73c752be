package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/remarkable-pocket/internal/core/services"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "List articles excluded from sync",
	Long: `Lists Pocket articles that failed to convert and are no longer retried.

Articles are excluded by title. Run with --reset to clear the list
together with all other stored state.`,
	Args: cobra.NoArgs,
	RunE: runExclusions,
}

func init() {
	rootCmd.AddCommand(exclusionsCmd)
}

func runExclusions(cmd *cobra.Command, _ []string) error {
	if openState == nil {
		return errors.New("state store not configured")
	}
	store, err := openState(expandHome(configDir))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	cache := services.NewExclusionCache(cmd.Context(), store.ExclusionStore(), time.Now)
	exclusions := cache.List()
	if len(exclusions) == 0 {
		cmd.Println("No excluded articles.")
		return nil
	}

	styles := newTableStyles(defaultPalette())
	t := newTable(styles, func(_, col int) lipgloss.Style {
		if col == 1 {
			return styles.Error
		}
		return styles.Cell
	}, "Title", "Reason", "Excluded")
	for _, e := range exclusions {
		t.Row(e.Title, e.Reason, e.ExcludedAt.Local().Format("2006-01-02 15:04"))
	}

	cmd.Println(t.Render())
	cmd.Printf("%d excluded article(s).\n", len(exclusions))
	return nil
}
