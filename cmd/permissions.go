package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/internal/ui"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Inspect and confirm file permissions",
}

var permissionsListCmd = &cobra.Command{
	Use:   "list <file-id>",
	Short: "List the permissions of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connectedApp(cmd)
		if err != nil {
			return err
		}
		return permissionsListLogic(a, cmd, args[0])
	},
}

// permissionsConfirmCmd finishes a transfer whose last step failed.
var permissionsConfirmCmd = &cobra.Command{
	Use:   "confirm <file-id> <permission-id>",
	Short: "Mark an existing permission as pending owner",
	Long: `Reasserts role=writer and pendingOwner=true on a permission. Running it
more than once has no further effect. Use it to finish a transfer whose
final step failed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connectedApp(cmd)
		if err != nil {
			return err
		}
		return permissionsConfirmLogic(a, cmd, args[0], args[1])
	},
}

func permissionsListLogic(a *app.App, cmd *cobra.Command, fileID string) error {
	perms, err := a.SDK.ListPermissions(cmd.Context(), fileID, a.Config.PermissionPageSize)
	if err != nil {
		return fmt.Errorf("listing permissions: %w", err)
	}
	ui.DisplayPermissions(cmd.OutOrStdout(), perms, fileID)
	return nil
}

func permissionsConfirmLogic(a *app.App, cmd *cobra.Command, fileID, permissionID string) error {
	wf := transfer.NewWorkflow(a.SDK, workflowOptions(a.Config), a.Logger)
	perm, err := wf.Confirm(cmd.Context(), fileID, permissionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ui.PrintSuccess(out, "Permission %s on file %s is pending owner.", perm.ID, fileID)
	ui.DisplayPermission(out, perm)
	return nil
}

func init() {
	permissionsCmd.AddCommand(permissionsListCmd)
	permissionsCmd.AddCommand(permissionsConfirmCmd)
	rootCmd.AddCommand(permissionsCmd)
}
