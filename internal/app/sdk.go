package app

import (
	"context"

	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

// SDK defines the Drive operations used by the commands.
// This allows for mocking in tests.
type SDK interface {
	ListFiles(ctx context.Context, pageSize int64, pageToken string) (gdrive.FilePage, error)
	CreatePermission(ctx context.Context, fileID string, request gdrive.PermissionRequest, opts gdrive.CreateOptions) (gdrive.PermissionRecord, error)
	ListPermissions(ctx context.Context, fileID string, pageSize int64) ([]gdrive.PermissionRecord, error)
	UpdatePermission(ctx context.Context, fileID, permissionID string, update gdrive.PermissionUpdate) (gdrive.PermissionRecord, error)
	AboutUser(ctx context.Context) (gdrive.User, error)
}

var _ SDK = (*gdrive.Client)(nil)
