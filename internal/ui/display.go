// Package ui (display.go) formats Drive files, permissions and the signed-in
// user for the console, and provides the colored status lines and the
// spinner shown while searching for a file.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	hintColor    = color.New(color.FgCyan)
)

// Success prints a green status line.
func Success(w io.Writer, msg string) {
	successColor.Fprintln(w, msg)
}

// PrintSuccess prints a formatted green status line.
func PrintSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, format+"\n", args...)
}

// Warn prints a yellow status line.
func Warn(w io.Writer, msg string) {
	warnColor.Fprintln(w, msg)
}

// PrintError prints err in red, followed by a hint on how to recover when
// one is known.
func PrintError(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %v\n", err)
	if hint := Hint(err); hint != "" {
		hintColor.Fprintln(w, hint)
	}
}

// DisplayFiles prints each file as "name (id)" followed by its owners'
// permission ids.
func DisplayFiles(w io.Writer, files []gdrive.FileRecord) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files found.")
		return
	}

	fmt.Fprintln(w, "Files:")
	for _, f := range files {
		fmt.Fprintf(w, "%s (%s)\n", f.Name, f.ID)
		if len(f.Owners) == 0 {
			fmt.Fprintln(w, "  No owners?")
			continue
		}
		for _, o := range f.Owners {
			if o.EmailAddress != "" {
				fmt.Fprintf(w, "  owner: %s [permission %s]\n", o.EmailAddress, o.PermissionID)
			} else {
				fmt.Fprintf(w, "  owner permission: %s\n", o.PermissionID)
			}
		}
	}
}

// DisplayPermissions prints the permissions of a file as a table.
func DisplayPermissions(w io.Writer, perms []gdrive.PermissionRecord, fileID string) {
	if len(perms) == 0 {
		fmt.Fprintf(w, "No permissions found for file %s.\n", fileID)
		return
	}

	fmt.Fprintf(w, "Permissions for file %s (%d found)\n\n", fileID, len(perms))
	fmt.Fprintf(w, "%-24.24s %-8s %-10s %-8s %s\n", "Permission ID", "Type", "Role", "Pending", "Email")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, p := range perms {
		pending := ""
		if p.PendingOwner {
			pending = "yes"
		}
		fmt.Fprintf(w, "%-24.24s %-8s %-10s %-8s %s\n", p.ID, p.Type, p.Role, pending, p.EmailAddress)
	}
}

// DisplayPermission prints a single permission record.
func DisplayPermission(w io.Writer, p gdrive.PermissionRecord) {
	fmt.Fprintf(w, "  ID:            %s\n", p.ID)
	fmt.Fprintf(w, "  Type:          %s\n", p.Type)
	fmt.Fprintf(w, "  Role:          %s\n", p.Role)
	if p.EmailAddress != "" {
		fmt.Fprintf(w, "  Email:         %s\n", p.EmailAddress)
	}
	if p.DisplayName != "" {
		fmt.Fprintf(w, "  Name:          %s\n", p.DisplayName)
	}
	fmt.Fprintf(w, "  Pending owner: %t\n", p.PendingOwner)
}

// DisplayTransferResult reports a finished transfer.
func DisplayTransferResult(w io.Writer, res transfer.Result) {
	PrintSuccess(w, "Ownership of %q (%s) offered to %s.", res.File.Name, res.File.ID, res.Permission.EmailAddress)
	fmt.Fprintln(w, "The recipient must accept the pending ownership in Google Drive.")
	DisplayPermission(w, res.Permission)
}

// DisplayUser prints the signed-in account.
func DisplayUser(w io.Writer, user gdrive.User) {
	fmt.Fprintf(w, "Logged in as: %s (%s)\n", user.DisplayName, user.EmailAddress)
}

// NewSpinner returns an indeterminate progress bar on stderr. Nothing is
// drawn when stderr is not a terminal.
func NewSpinner(description string) *progressbar.ProgressBar {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return newSpinner(io.Discard, description)
	}
	return newSpinner(os.Stderr, description)
}

func newSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	if description == "" {
		description = "Working..."
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// SearchProgress returns a page callback that updates bar with the number of
// files scanned.
func SearchProgress(bar *progressbar.ProgressBar, name string) transfer.PageFunc {
	return func(page, scanned int) {
		bar.Describe(fmt.Sprintf("Searching for %q (%d files, page %d)", name, scanned, page))
		_ = bar.Add(1)
	}
}
