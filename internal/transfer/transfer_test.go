package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

type createCall struct {
	fileID  string
	request gdrive.PermissionRequest
	opts    gdrive.CreateOptions
}

type updateCall struct {
	fileID       string
	permissionID string
	update       gdrive.PermissionUpdate
}

// fakeDrive keeps permissions in memory and records every mutating call.
type fakeDrive struct {
	pages       []gdrive.FilePage
	listErr     error
	createErr   error
	updateErr   error
	hideInList  bool
	pageSizes   []int64
	creates     []createCall
	updates     []updateCall
	listPermsN  int
	permissions map[string][]gdrive.PermissionRecord
}

func newFakeDrive(pages ...gdrive.FilePage) *fakeDrive {
	for i := range pages {
		if i < len(pages)-1 && pages[i].NextPageToken == "" {
			pages[i].NextPageToken = "page-" + string(rune('1'+i))
		}
	}
	return &fakeDrive{pages: pages, permissions: map[string][]gdrive.PermissionRecord{}}
}

func (f *fakeDrive) ListFiles(_ context.Context, pageSize int64, pageToken string) (gdrive.FilePage, error) {
	f.pageSizes = append(f.pageSizes, pageSize)
	if f.listErr != nil {
		return gdrive.FilePage{}, f.listErr
	}
	if len(f.pages) == 0 {
		return gdrive.FilePage{}, nil
	}
	idx := 0
	for i, p := range f.pages {
		if p.NextPageToken == pageToken && pageToken != "" {
			idx = i + 1
		}
	}
	return f.pages[idx], nil
}

func (f *fakeDrive) CreatePermission(_ context.Context, fileID string, request gdrive.PermissionRequest, opts gdrive.CreateOptions) (gdrive.PermissionRecord, error) {
	f.creates = append(f.creates, createCall{fileID, request, opts})
	if f.createErr != nil {
		return gdrive.PermissionRecord{}, f.createErr
	}
	perm := gdrive.PermissionRecord{
		ID:           "perm-new",
		Type:         request.Type,
		Role:         request.Role,
		EmailAddress: request.EmailAddress,
		PendingOwner: request.PendingOwner,
	}
	f.permissions[fileID] = append(f.permissions[fileID], perm)
	return perm, nil
}

func (f *fakeDrive) ListPermissions(_ context.Context, fileID string, _ int64) ([]gdrive.PermissionRecord, error) {
	f.listPermsN++
	if f.hideInList {
		return nil, nil
	}
	return f.permissions[fileID], nil
}

func (f *fakeDrive) UpdatePermission(_ context.Context, fileID, permissionID string, update gdrive.PermissionUpdate) (gdrive.PermissionRecord, error) {
	f.updates = append(f.updates, updateCall{fileID, permissionID, update})
	if f.updateErr != nil {
		return gdrive.PermissionRecord{}, f.updateErr
	}
	for i, p := range f.permissions[fileID] {
		if p.ID == permissionID {
			p.Role = update.Role
			p.PendingOwner = update.PendingOwner
			f.permissions[fileID][i] = p
			return p, nil
		}
	}
	return gdrive.PermissionRecord{ID: permissionID, Role: update.Role, PendingOwner: update.PendingOwner}, nil
}

func (f *fakeDrive) permissionCalls() int {
	return len(f.creates) + len(f.updates) + f.listPermsN
}

var defaultOptions = Options{
	PageSize:           10,
	PermissionPageSize: 100,
	Create: gdrive.CreateOptions{
		SendNotificationEmail: true,
		EmailMessage:          "sending you this file",
		MoveToNewOwnersRoot:   true,
	},
}

func twoFiles() gdrive.FilePage {
	return gdrive.FilePage{Files: []gdrive.FileRecord{
		{ID: "F1", Name: "a"},
		{ID: "F2", Name: "b"},
	}}
}

func TestFindFile(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		drive := newFakeDrive(twoFiles())
		wf := NewWorkflow(drive, defaultOptions, nil)

		file, err := wf.FindFile(context.Background(), "b")
		require.NoError(t, err)
		assert.Equal(t, "F2", file.ID)
		assert.Equal(t, []int64{10}, drive.pageSizes)
	})

	t.Run("case sensitive", func(t *testing.T) {
		wf := NewWorkflow(newFakeDrive(twoFiles()), defaultOptions, nil)

		_, err := wf.FindFile(context.Background(), "B")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("duplicate names resolve to first", func(t *testing.T) {
		drive := newFakeDrive(gdrive.FilePage{Files: []gdrive.FileRecord{
			{ID: "F1", Name: "dup"},
			{ID: "F2", Name: "dup"},
		}})
		wf := NewWorkflow(drive, defaultOptions, nil)

		file, err := wf.FindFile(context.Background(), "dup")
		require.NoError(t, err)
		assert.Equal(t, "F1", file.ID)
	})

	t.Run("follows pages", func(t *testing.T) {
		drive := newFakeDrive(
			gdrive.FilePage{Files: []gdrive.FileRecord{{ID: "F1", Name: "a"}}},
			gdrive.FilePage{Files: []gdrive.FileRecord{{ID: "F2", Name: "b"}}},
			gdrive.FilePage{Files: []gdrive.FileRecord{{ID: "F3", Name: "c"}}},
		)
		wf := NewWorkflow(drive, defaultOptions, nil)

		var progress [][2]int
		wf.OnPage(func(page, scanned int) { progress = append(progress, [2]int{page, scanned}) })

		file, err := wf.FindFile(context.Background(), "c")
		require.NoError(t, err)
		assert.Equal(t, "F3", file.ID)
		assert.Equal(t, [][2]int{{1, 1}, {2, 2}, {3, 3}}, progress)
	})

	t.Run("list error", func(t *testing.T) {
		drive := newFakeDrive(twoFiles())
		drive.listErr = gdrive.ErrRetryLater
		wf := NewWorkflow(drive, defaultOptions, nil)

		_, err := wf.FindFile(context.Background(), "a")
		assert.ErrorIs(t, err, gdrive.ErrRetryLater)
	})
}

func TestTransfer_NotFoundMakesNoPermissionCalls(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	wf := NewWorkflow(drive, defaultOptions, nil)

	_, err := wf.Transfer(context.Background(), Request{FileName: "c", Email: "user@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepResolve, stepErr.Step)
	assert.Zero(t, drive.permissionCalls())
}

func TestTransfer_NoFiles(t *testing.T) {
	drive := newFakeDrive()
	wf := NewWorkflow(drive, defaultOptions, nil)

	_, err := wf.Transfer(context.Background(), Request{FileName: "a", Email: "user@example.com"})
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.NotErrorIs(t, err, ErrFileNotFound)
	assert.Zero(t, drive.permissionCalls())
}

func TestTransfer_EndToEnd(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	drive.permissions["F1"] = []gdrive.PermissionRecord{
		{ID: "owner-perm", Type: "user", Role: gdrive.RoleOwner, EmailAddress: "me@example.com"},
	}
	wf := NewWorkflow(drive, defaultOptions, nil)

	res, err := wf.Transfer(context.Background(), Request{FileName: "a", Email: "User@Example.com"})
	require.NoError(t, err)

	require.Len(t, drive.creates, 1)
	assert.Equal(t, createCall{
		fileID: "F1",
		request: gdrive.PermissionRequest{
			Type:         "user",
			Role:         "writer",
			EmailAddress: "User@Example.com",
			PendingOwner: true,
		},
		opts: defaultOptions.Create,
	}, drive.creates[0])

	assert.Equal(t, 1, drive.listPermsN)

	require.Len(t, drive.updates, 1)
	assert.Equal(t, updateCall{
		fileID:       "F1",
		permissionID: "perm-new",
		update:       gdrive.PermissionUpdate{Role: "writer", PendingOwner: true},
	}, drive.updates[0])

	assert.Equal(t, "F1", res.File.ID)
	assert.Equal(t, "perm-new", res.Created.ID)
	assert.Equal(t, "perm-new", res.Permission.ID)
	assert.True(t, res.Permission.PendingOwner)
}

func TestTransfer_FallsBackToCreatedID(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	drive.hideInList = true
	wf := NewWorkflow(drive, defaultOptions, nil)

	res, err := wf.Transfer(context.Background(), Request{FileName: "b", Email: "user@example.com"})
	require.NoError(t, err)
	require.Len(t, drive.updates, 1)
	assert.Equal(t, "perm-new", drive.updates[0].permissionID)
	assert.Equal(t, "perm-new", res.Permission.ID)
}

func TestTransfer_CreateFails(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	drive.createErr = gdrive.ErrAccessDenied
	wf := NewWorkflow(drive, defaultOptions, nil)

	_, err := wf.Transfer(context.Background(), Request{FileName: "a", Email: "user@example.com"})
	assert.ErrorIs(t, err, gdrive.ErrAccessDenied)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepCreate, stepErr.Step)
	assert.Equal(t, "F1", stepErr.FileID)
	assert.Empty(t, stepErr.PermissionID)
	assert.Empty(t, drive.updates)
}

func TestTransfer_ConfirmFailsReportsPermission(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	drive.updateErr = gdrive.ErrRetryLater
	wf := NewWorkflow(drive, defaultOptions, nil)

	_, err := wf.Transfer(context.Background(), Request{FileName: "a", Email: "user@example.com"})
	assert.ErrorIs(t, err, gdrive.ErrRetryLater)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepConfirm, stepErr.Step)
	assert.Equal(t, "F1", stepErr.FileID)
	assert.Equal(t, "perm-new", stepErr.PermissionID)
	assert.Contains(t, err.Error(), "perm-new")
}

func TestConfirm_Idempotent(t *testing.T) {
	drive := newFakeDrive(twoFiles())
	drive.permissions["F1"] = []gdrive.PermissionRecord{
		{ID: "P1", Type: "user", Role: "writer", EmailAddress: "user@example.com", PendingOwner: true},
	}
	wf := NewWorkflow(drive, defaultOptions, nil)

	first, err := wf.Confirm(context.Background(), "F1", "P1")
	require.NoError(t, err)
	stateAfterFirst := append([]gdrive.PermissionRecord(nil), drive.permissions["F1"]...)

	second, err := wf.Confirm(context.Background(), "F1", "P1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, stateAfterFirst, drive.permissions["F1"])
	assert.Len(t, drive.updates, 2)
}

func TestListFiles_Limit(t *testing.T) {
	drive := newFakeDrive(
		gdrive.FilePage{Files: []gdrive.FileRecord{{ID: "F1"}, {ID: "F2"}}},
		gdrive.FilePage{Files: []gdrive.FileRecord{{ID: "F3"}, {ID: "F4"}}},
	)
	opts := defaultOptions
	opts.PageSize = 2
	wf := NewWorkflow(drive, opts, nil)

	files, err := wf.ListFiles(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "F3", files[2].ID)
	assert.Equal(t, []int64{2, 1}, drive.pageSizes)
}

func TestStepErrorMessage(t *testing.T) {
	err := &StepError{Step: StepConfirm, FileID: "F1", PermissionID: "P1", Err: errors.New("boom")}
	assert.Equal(t, "confirm pending owner failed (file F1, permission P1): boom", err.Error())

	err = &StepError{Step: StepResolve, Err: ErrNoFiles}
	assert.Equal(t, "resolve file failed: no files found", err.Error())
}
