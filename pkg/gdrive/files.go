package gdrive

import (
	"context"

	"google.golang.org/api/drive/v3"
)

// ListFiles fetches one page of the user's files with id, name and owners.
// An empty pageToken requests the first page.
func (c *Client) ListFiles(ctx context.Context, pageSize int64, pageToken string) (FilePage, error) {
	call := c.service.Files.List().
		PageSize(pageSize).
		Fields(fileListFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	c.logger.Debug("listing files", "pageSize", pageSize, "continued", pageToken != "")

	res, err := call.Do()
	if err != nil {
		return FilePage{}, mapError("listing files", err)
	}

	page := FilePage{
		Files:         make([]FileRecord, 0, len(res.Files)),
		NextPageToken: res.NextPageToken,
	}
	for _, f := range res.Files {
		page.Files = append(page.Files, toFileRecord(f))
	}

	return page, nil
}

func toFileRecord(f *drive.File) FileRecord {
	record := FileRecord{
		ID:     f.Id,
		Name:   f.Name,
		Owners: make([]Owner, 0, len(f.Owners)),
	}
	for _, o := range f.Owners {
		if o == nil {
			continue
		}
		record.Owners = append(record.Owners, Owner{
			PermissionID: o.PermissionId,
			EmailAddress: o.EmailAddress,
			DisplayName:  o.DisplayName,
		})
	}
	return record
}
