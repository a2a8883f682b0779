package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/internal/ui"
)

const defaultFilesListLimit = 10

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect your Drive files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List files with their ids and owners",
	Long:  "Prints the first files of your Drive as \"name (id)\" together with the permission id of each owner.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paging, err := ui.ParsePagingFlags(cmd)
		if err != nil {
			return err
		}
		a, err := connectedApp(cmd)
		if err != nil {
			return err
		}
		return filesListLogic(a, cmd, paging)
	},
}

func filesListLogic(a *app.App, cmd *cobra.Command, paging ui.Paging) error {
	opts := workflowOptions(a.Config)
	if paging.PageSize > 0 {
		opts.PageSize = paging.PageSize
	}

	files, err := transfer.NewWorkflow(a.SDK, opts, a.Logger).ListFiles(cmd.Context(), paging.Limit)
	if err != nil {
		return err
	}

	ui.DisplayFiles(cmd.OutOrStdout(), files)
	return nil
}

func init() {
	ui.AddPagingFlags(filesListCmd, defaultFilesListLimit)
	filesCmd.AddCommand(filesListCmd)
	rootCmd.AddCommand(filesCmd)
}
