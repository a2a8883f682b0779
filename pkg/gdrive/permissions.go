package gdrive

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
)

// CreatePermission creates a permission on fileID. Ownership is never
// transferred directly; the recipient becomes a pending owner instead.
func (c *Client) CreatePermission(ctx context.Context, fileID string, request PermissionRequest, opts CreateOptions) (PermissionRecord, error) {
	body := &drive.Permission{
		Type:         request.Type,
		Role:         request.Role,
		EmailAddress: request.EmailAddress,
		PendingOwner: request.PendingOwner,
	}

	call := c.service.Permissions.Create(fileID, body).
		SendNotificationEmail(opts.SendNotificationEmail).
		MoveToNewOwnersRoot(opts.MoveToNewOwnersRoot).
		TransferOwnership(false).
		SupportsAllDrives(true).
		Fields(permissionFields).
		Context(ctx)
	if opts.SendNotificationEmail && opts.EmailMessage != "" {
		call = call.EmailMessage(opts.EmailMessage)
	}

	c.logger.Debug("creating permission", "fileId", fileID, "role", request.Role, "pendingOwner", request.PendingOwner)

	perm, err := call.Do()
	if err != nil {
		return PermissionRecord{}, mapError(fmt.Sprintf("creating permission on file %s", fileID), err)
	}

	return toPermissionRecord(perm), nil
}

// ListPermissions returns every permission on fileID, following
// nextPageToken until the listing is exhausted.
func (c *Client) ListPermissions(ctx context.Context, fileID string, pageSize int64) ([]PermissionRecord, error) {
	var (
		records   []PermissionRecord
		pageToken string
	)

	for {
		call := c.service.Permissions.List(fileID).
			PageSize(pageSize).
			SupportsAllDrives(true).
			Fields(permissionListFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, mapError(fmt.Sprintf("listing permissions on file %s", fileID), err)
		}

		for _, p := range res.Permissions {
			records = append(records, toPermissionRecord(p))
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	c.logger.Debug("listed permissions", "fileId", fileID, "count", len(records))
	return records, nil
}

// UpdatePermission patches role and pendingOwner on an existing permission.
func (c *Client) UpdatePermission(ctx context.Context, fileID, permissionID string, update PermissionUpdate) (PermissionRecord, error) {
	body := &drive.Permission{
		Role:         update.Role,
		PendingOwner: update.PendingOwner,
	}
	// pendingOwner=false must still be sent to clear the flag.
	body.ForceSendFields = []string{"PendingOwner"}

	c.logger.Debug("updating permission", "fileId", fileID, "permissionId", permissionID)

	perm, err := c.service.Permissions.Update(fileID, permissionID, body).
		SupportsAllDrives(true).
		Fields(permissionFields).
		Context(ctx).
		Do()
	if err != nil {
		return PermissionRecord{}, mapError(fmt.Sprintf("updating permission %s on file %s", permissionID, fileID), err)
	}

	return toPermissionRecord(perm), nil
}

func toPermissionRecord(p *drive.Permission) PermissionRecord {
	if p == nil {
		return PermissionRecord{}
	}
	return PermissionRecord{
		ID:           p.Id,
		Type:         p.Type,
		Role:         p.Role,
		EmailAddress: p.EmailAddress,
		DisplayName:  p.DisplayName,
		PendingOwner: p.PendingOwner,
	}
}
