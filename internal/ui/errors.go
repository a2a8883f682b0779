package ui

import (
	"errors"
	"fmt"

	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/credstore"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

// Hint returns a one-line suggestion for recovering from err, or "".
func Hint(err error) string {
	var stepErr *transfer.StepError
	if errors.As(err, &stepErr) && stepErr.PermissionID != "" &&
		(stepErr.Step == transfer.StepList || stepErr.Step == transfer.StepConfirm) {
		return fmt.Sprintf("The invitation was created. Run the same transfer again, or finish with: gdrive-ownership permissions confirm %s %s",
			stepErr.FileID, stepErr.PermissionID)
	}

	switch {
	case errors.Is(err, credstore.ErrRegistrationMissing):
		return "Download an OAuth client (Desktop app) from the Google Cloud console and save it as credentials.json."
	case errors.Is(err, credstore.ErrLocked):
		return "Another gdrive-ownership process is using the token file. Try again when it finishes."
	case errors.Is(err, app.ErrNotLoggedIn):
		return "Run 'gdrive-ownership auth login' first."
	case errors.Is(err, gdrive.ErrReauthRequired):
		return "Your saved authorization is no longer valid. Run 'gdrive-ownership auth login'."
	case errors.Is(err, gdrive.ErrRetryLater):
		return "Google Drive is throttling requests. Try again later."
	case errors.Is(err, gdrive.ErrAccessDenied):
		return "Check that you own the file and may share it with the recipient."
	case errors.Is(err, transfer.ErrFileNotFound), errors.Is(err, transfer.ErrNoFiles):
		return "Names must match exactly. Use 'gdrive-ownership files list' to see your files."
	}
	return ""
}
