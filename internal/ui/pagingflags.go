package ui

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/config"
)

// Paging holds the listing flags shared by list commands.
type Paging struct {
	Limit    int
	PageSize int64
}

// AddPagingFlags adds the standard listing flags to a command.
func AddPagingFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().Int("limit", defaultLimit, "Maximum number of items to print")
	cmd.Flags().Int64("page-size", 0, "Items requested per API call (0 uses the configured page size)")
}

// ParsePagingFlags extracts listing settings from command flags.
func ParsePagingFlags(cmd *cobra.Command) (Paging, error) {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return Paging{}, fmt.Errorf("error parsing limit flag: %w", err)
	}
	if limit <= 0 {
		return Paging{}, fmt.Errorf("--limit must be positive, got %d", limit)
	}

	pageSize, err := cmd.Flags().GetInt64("page-size")
	if err != nil {
		return Paging{}, fmt.Errorf("error parsing page-size flag: %w", err)
	}
	if pageSize < 0 {
		return Paging{}, fmt.Errorf("--page-size must not be negative, got %d", pageSize)
	}
	if pageSize > config.MaxPageSize {
		return Paging{}, fmt.Errorf("--page-size must be at most %d, got %d", config.MaxPageSize, pageSize)
	}

	return Paging{Limit: limit, PageSize: pageSize}, nil
}
