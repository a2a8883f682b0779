package cmd

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/config"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

// MockSDK is a mock implementation of the SDK interface for testing.
type MockSDK struct {
	ListFilesFunc        func(pageSize int64, pageToken string) (gdrive.FilePage, error)
	CreatePermissionFunc func(fileID string, request gdrive.PermissionRequest, opts gdrive.CreateOptions) (gdrive.PermissionRecord, error)
	ListPermissionsFunc  func(fileID string, pageSize int64) ([]gdrive.PermissionRecord, error)
	UpdatePermissionFunc func(fileID, permissionID string, update gdrive.PermissionUpdate) (gdrive.PermissionRecord, error)
	AboutUserFunc        func() (gdrive.User, error)
}

func (m *MockSDK) ListFiles(_ context.Context, pageSize int64, pageToken string) (gdrive.FilePage, error) {
	if m.ListFilesFunc != nil {
		return m.ListFilesFunc(pageSize, pageToken)
	}
	return gdrive.FilePage{}, nil
}

func (m *MockSDK) CreatePermission(_ context.Context, fileID string, request gdrive.PermissionRequest, opts gdrive.CreateOptions) (gdrive.PermissionRecord, error) {
	if m.CreatePermissionFunc != nil {
		return m.CreatePermissionFunc(fileID, request, opts)
	}
	return gdrive.PermissionRecord{}, nil
}

func (m *MockSDK) ListPermissions(_ context.Context, fileID string, pageSize int64) ([]gdrive.PermissionRecord, error) {
	if m.ListPermissionsFunc != nil {
		return m.ListPermissionsFunc(fileID, pageSize)
	}
	return nil, nil
}

func (m *MockSDK) UpdatePermission(_ context.Context, fileID, permissionID string, update gdrive.PermissionUpdate) (gdrive.PermissionRecord, error) {
	if m.UpdatePermissionFunc != nil {
		return m.UpdatePermissionFunc(fileID, permissionID, update)
	}
	return gdrive.PermissionRecord{}, nil
}

func (m *MockSDK) AboutUser(_ context.Context) (gdrive.User, error) {
	if m.AboutUserFunc != nil {
		return m.AboutUserFunc()
	}
	return gdrive.User{}, nil
}

func newTestApp(sdk app.SDK) *app.App {
	return &app.App{
		Config: config.Default(),
		Logger: logger.NoopLogger{},
		SDK:    sdk,
	}
}

// newTestCmd returns a command whose output is captured in the returned buffer.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}
