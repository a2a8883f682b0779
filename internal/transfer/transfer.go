// Package transfer implements the ownership handoff of a single Drive file:
// resolve the file by name, invite the recipient as a pending owner, then
// re-list the file's permissions and reassert the pending-owner flag on the
// recipient's entry.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

var (
	// ErrNoFiles means the account has no files at all.
	ErrNoFiles = errors.New("no files found")
	// ErrFileNotFound means no file carries the requested name.
	ErrFileNotFound = errors.New("file not found")
	// ErrPermissionNotFound means the re-listed permissions hold no entry
	// for the recipient and the create call returned no id either.
	ErrPermissionNotFound = errors.New("recipient permission not found")
)

// Step names a stage of the transfer.
type Step string

const (
	StepResolve Step = "resolve file"
	StepCreate  Step = "create permission"
	StepList    Step = "list permissions"
	StepConfirm Step = "confirm pending owner"
)

// StepError records which stage of a transfer failed and what had been
// created so far.
type StepError struct {
	Step         Step
	FileID       string
	PermissionID string
	Err          error
}

func (e *StepError) Error() string {
	switch {
	case e.PermissionID != "":
		return fmt.Sprintf("%s failed (file %s, permission %s): %v", e.Step, e.FileID, e.PermissionID, e.Err)
	case e.FileID != "":
		return fmt.Sprintf("%s failed (file %s): %v", e.Step, e.FileID, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
}

func (e *StepError) Unwrap() error { return e.Err }

// Drive is the subset of the Drive facade the workflow needs.
type Drive interface {
	ListFiles(ctx context.Context, pageSize int64, pageToken string) (gdrive.FilePage, error)
	CreatePermission(ctx context.Context, fileID string, request gdrive.PermissionRequest, opts gdrive.CreateOptions) (gdrive.PermissionRecord, error)
	ListPermissions(ctx context.Context, fileID string, pageSize int64) ([]gdrive.PermissionRecord, error)
	UpdatePermission(ctx context.Context, fileID, permissionID string, update gdrive.PermissionUpdate) (gdrive.PermissionRecord, error)
}

// Options tune the API calls made by the workflow.
type Options struct {
	PageSize           int64
	PermissionPageSize int64
	Create             gdrive.CreateOptions
}

// Request is the validated input of one transfer.
type Request struct {
	FileName string
	Email    string
}

// Result describes a completed transfer.
type Result struct {
	File       gdrive.FileRecord
	Created    gdrive.PermissionRecord
	Permission gdrive.PermissionRecord
}

// PageFunc is called after each files.list page with the running count of
// files scanned.
type PageFunc func(page int, scanned int)

// Workflow runs transfers against a Drive.
type Workflow struct {
	drive  Drive
	opts   Options
	logger logger.Logger
	onPage PageFunc
}

// NewWorkflow returns a Workflow. A nil log discards output.
func NewWorkflow(drive Drive, opts Options, log logger.Logger) *Workflow {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.PermissionPageSize <= 0 {
		opts.PermissionPageSize = 100
	}
	return &Workflow{drive: drive, opts: opts, logger: log}
}

// OnPage registers a progress callback for FindFile.
func (w *Workflow) OnPage(fn PageFunc) {
	w.onPage = fn
}

// FindFile pages through the user's files and returns the first file whose
// name equals name exactly.
func (w *Workflow) FindFile(ctx context.Context, name string) (gdrive.FileRecord, error) {
	var (
		pageToken string
		scanned   int
	)

	for page := 1; ; page++ {
		res, err := w.drive.ListFiles(ctx, w.opts.PageSize, pageToken)
		if err != nil {
			return gdrive.FileRecord{}, err
		}
		scanned += len(res.Files)
		if w.onPage != nil {
			w.onPage(page, scanned)
		}

		for _, f := range res.Files {
			if f.Name == name {
				w.logger.Debug("resolved file", "name", name, "fileId", f.ID, "page", page)
				return f, nil
			}
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if scanned == 0 {
		return gdrive.FileRecord{}, ErrNoFiles
	}
	return gdrive.FileRecord{}, fmt.Errorf("%w: %q (%d files searched)", ErrFileNotFound, name, scanned)
}

// ListFiles returns up to limit files in listing order.
func (w *Workflow) ListFiles(ctx context.Context, limit int) ([]gdrive.FileRecord, error) {
	var (
		files     []gdrive.FileRecord
		pageToken string
	)

	for len(files) < limit {
		size := w.opts.PageSize
		if remaining := int64(limit - len(files)); remaining < size {
			size = remaining
		}
		res, err := w.drive.ListFiles(ctx, size, pageToken)
		if err != nil {
			return nil, err
		}
		files = append(files, res.Files...)
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Transfer resolves req.FileName and makes req.Email a pending owner of it.
// Nothing is written unless the file is found.
func (w *Workflow) Transfer(ctx context.Context, req Request) (Result, error) {
	file, err := w.FindFile(ctx, req.FileName)
	if err != nil {
		return Result{}, &StepError{Step: StepResolve, Err: err}
	}

	created, err := w.drive.CreatePermission(ctx, file.ID, gdrive.NewPendingOwnerRequest(req.Email), w.opts.Create)
	if err != nil {
		return Result{}, &StepError{Step: StepCreate, FileID: file.ID, Err: err}
	}
	w.logger.Info("created pending owner permission", "fileId", file.ID, "permissionId", created.ID)

	permissionID, err := w.recipientPermission(ctx, file.ID, req.Email, created.ID)
	if err != nil {
		return Result{}, &StepError{Step: StepList, FileID: file.ID, PermissionID: created.ID, Err: err}
	}

	final, err := w.Confirm(ctx, file.ID, permissionID)
	if err != nil {
		return Result{}, err
	}

	return Result{File: file, Created: created, Permission: final}, nil
}

// recipientPermission finds the permission id held by email, falling back to
// the id returned by the create call.
func (w *Workflow) recipientPermission(ctx context.Context, fileID, email, createdID string) (string, error) {
	perms, err := w.drive.ListPermissions(ctx, fileID, w.opts.PermissionPageSize)
	if err != nil {
		return "", err
	}

	for _, p := range perms {
		if strings.EqualFold(p.EmailAddress, email) {
			return p.ID, nil
		}
	}

	if createdID == "" {
		return "", fmt.Errorf("%w: %s", ErrPermissionNotFound, email)
	}
	w.logger.Warn("recipient missing from permission list, using created permission id",
		"fileId", fileID, "permissionId", createdID)
	return createdID, nil
}

// Confirm reasserts role=writer and pendingOwner=true on permissionID.
// Running it again leaves the permission unchanged.
func (w *Workflow) Confirm(ctx context.Context, fileID, permissionID string) (gdrive.PermissionRecord, error) {
	perm, err := w.drive.UpdatePermission(ctx, fileID, permissionID, gdrive.PendingOwnerUpdate())
	if err != nil {
		return gdrive.PermissionRecord{}, &StepError{Step: StepConfirm, FileID: fileID, PermissionID: permissionID, Err: err}
	}
	w.logger.Info("confirmed pending owner", "fileId", fileID, "permissionId", perm.ID)
	return perm, nil
}
