//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/config"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

// E2ETestHelper provides utilities for E2E testing
type E2ETestHelper struct {
	App    *app.App
	Config *Config
	Ctx    context.Context
}

// NewE2ETestHelper connects to Google Drive with a saved token. It never
// opens a browser.
func NewE2ETestHelper(t *testing.T) *E2ETestHelper {
	t.Helper()

	e2eCfg := LoadConfig()
	if _, err := os.Stat(e2eCfg.TokenPath); err != nil {
		t.Fatalf(`
E2E Testing Setup Required:

1. Authorize once from the project root:
   ./gdrive-ownership auth login

2. token.json and credentials.json stay in the project root and are ignored by git.

3. Then run E2E tests:
   go test -tags=e2e -v ./e2e/...

Token file %s: %v
`, e2eCfg.TokenPath, err)
	}

	cfg := config.Default()
	cfg.TokenPath = e2eCfg.TokenPath
	cfg.CredentialsPath = e2eCfg.CredentialsPath
	cfg.SessionDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), e2eCfg.Timeout)
	t.Cleanup(cancel)

	a := app.New(cfg, logger.NewDefaultLogger(testing.Verbose()))
	if err := a.Connect(ctx, false); err != nil {
		t.Fatalf("Failed to connect with saved token: %v", err)
	}

	return &E2ETestHelper{App: a, Config: e2eCfg, Ctx: ctx}
}

// Workflow returns a transfer workflow over the live client.
func (h *E2ETestHelper) Workflow() *transfer.Workflow {
	cfg := h.App.Config
	return transfer.NewWorkflow(h.App.SDK, transfer.Options{
		PageSize:           cfg.PageSize,
		PermissionPageSize: cfg.PermissionPageSize,
		Create: gdrive.CreateOptions{
			SendNotificationEmail: cfg.SendNotificationEmail,
			EmailMessage:          cfg.EmailMessage,
			MoveToNewOwnersRoot:   cfg.MoveToNewOwnersRoot,
		},
	}, h.App.Logger)
}
