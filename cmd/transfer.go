package cmd

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/session"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/internal/ui"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

const (
	promptFileName  = "What's the filename?"
	promptRecipient = "Transfer to whom?"
)

var errInvalidInput = errors.New("invalid input")

// transferCmd handles 'transfer [filename] [email]'.
// Both values are collected and validated before authorization so that a
// typo never costs a consent round trip.
var transferCmd = &cobra.Command{
	Use:   "transfer [filename] [email]",
	Short: "Offer ownership of a file to another user",
	Long: `Finds the file with exactly the given name among your Drive files and
invites the recipient as a writer flagged as pending owner. Google emails the
recipient, who must accept before ownership moves.

Missing values are asked for interactively when stdin is a terminal.`,
	Example: `  gdrive-ownership transfer report.pdf alice@example.com
  gdrive-ownership transfer --file "Q3 plan" --to bob@example.com`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompter := ui.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), ui.StdinIsTerminal())
		req, err := collectTransferInput(cmd, args, prompter)
		if err != nil {
			return err
		}

		a, err := connectedApp(cmd)
		if err != nil {
			return err
		}
		return transferLogic(a, cmd, req)
	},
}

// collectTransferInput takes the file name and recipient from flags or
// positional arguments, prompting for whatever is missing.
func collectTransferInput(cmd *cobra.Command, args []string, prompter *ui.Prompter) (transfer.Request, error) {
	fileFlag, _ := cmd.Flags().GetString("file")
	toFlag, _ := cmd.Flags().GetString("to")

	var req transfer.Request
	switch {
	case fileFlag != "" && len(args) > 0:
		return req, fmt.Errorf("%w: give the file name either as an argument or with --file, not both", errInvalidInput)
	case toFlag != "" && len(args) > 1:
		return req, fmt.Errorf("%w: give the recipient either as an argument or with --to, not both", errInvalidInput)
	}

	req.FileName = fileFlag
	req.Email = toFlag
	if len(args) > 0 {
		req.FileName = args[0]
	}
	if len(args) > 1 {
		req.Email = args[1]
	}

	var err error
	if req.FileName == "" {
		if req.FileName, err = prompter.Ask(promptFileName); err != nil {
			return req, err
		}
	}
	if req.Email == "" {
		if req.Email, err = prompter.Ask(promptRecipient); err != nil {
			return req, err
		}
	}

	return req, validateTransferRequest(&req)
}

// validateTransferRequest requires a non-blank file name and a bare email
// address for the recipient.
func validateTransferRequest(req *transfer.Request) error {
	if strings.TrimSpace(req.FileName) == "" {
		return fmt.Errorf("%w: file name is empty", errInvalidInput)
	}

	req.Email = strings.TrimSpace(req.Email)
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return fmt.Errorf("%w: %q is not an email address", errInvalidInput, req.Email)
	}
	return nil
}

func transferLogic(a *app.App, cmd *cobra.Command, req transfer.Request) error {
	wf := transfer.NewWorkflow(a.SDK, workflowOptions(a.Config), a.Logger)

	if a.Sessions != nil {
		done, err := resumeTransfer(a, cmd, wf, req)
		if done || err != nil {
			return err
		}
	}

	bar := ui.NewSpinner(fmt.Sprintf("Searching for %q", req.FileName))
	wf.OnPage(ui.SearchProgress(bar, req.FileName))

	res, err := wf.Transfer(cmd.Context(), req)
	_ = bar.Finish()
	if err != nil {
		savePendingTransfer(a, req, err)
		return err
	}

	ui.DisplayTransferResult(cmd.OutOrStdout(), res)
	return nil
}

// resumeTransfer finishes a transfer saved by an earlier failed run. It
// reports done=false when there is nothing to resume, or when the saved
// permission no longer exists and a fresh transfer should run.
func resumeTransfer(a *app.App, cmd *cobra.Command, wf *transfer.Workflow, req transfer.Request) (bool, error) {
	pending, err := a.Sessions.Load(req.FileName, req.Email)
	if err != nil {
		a.Logger.Warn("ignoring unreadable pending transfer", "error", err)
		return false, nil
	}
	if pending == nil {
		return false, nil
	}

	a.Logger.Info("resuming pending transfer", "fileId", pending.FileID, "permissionId", pending.PermissionID)
	perm, err := wf.Confirm(cmd.Context(), pending.FileID, pending.PermissionID)
	if errors.Is(err, gdrive.ErrResourceNotFound) {
		a.Logger.Warn("saved permission is gone, starting over", "fileId", pending.FileID, "permissionId", pending.PermissionID)
		_ = a.Sessions.Delete(req.FileName, req.Email)
		return false, nil
	}
	if err != nil {
		return true, err
	}

	if err := a.Sessions.Delete(req.FileName, req.Email); err != nil {
		a.Logger.Warn("could not remove pending transfer", "error", err)
	}
	ui.DisplayTransferResult(cmd.OutOrStdout(), transfer.Result{
		File:       gdrive.FileRecord{ID: pending.FileID, Name: pending.FileName},
		Permission: perm,
	})
	return true, nil
}

// savePendingTransfer records a transfer whose invitation exists but whose
// final update failed, so the next run for the same file and recipient
// resumes instead of inviting again.
func savePendingTransfer(a *app.App, req transfer.Request, err error) {
	var stepErr *transfer.StepError
	if a.Sessions == nil || !errors.As(err, &stepErr) || stepErr.PermissionID == "" {
		return
	}

	state := &session.State{
		FileID:       stepErr.FileID,
		FileName:     req.FileName,
		Email:        req.Email,
		PermissionID: stepErr.PermissionID,
	}
	if err := a.Sessions.Save(state, a.Config.PendingTTL.Duration); err != nil {
		a.Logger.Warn("could not save pending transfer", "error", err)
	}
}

func init() {
	transferCmd.Flags().String("file", "", "Exact name of the file to transfer")
	transferCmd.Flags().String("to", "", "Email address of the new owner")
	rootCmd.AddCommand(transferCmd)
}
