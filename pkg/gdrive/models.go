package gdrive

// Permission types and roles used by the ownership transfer.
const (
	TypeUser   = "user"
	RoleWriter = "writer"
	RoleOwner  = "owner"
)

// Owner is one entry of a file's owners list.
type Owner struct {
	PermissionID string `json:"permissionId"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// FileRecord is the projection of a Drive file that the CLI works with.
type FileRecord struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Owners []Owner `json:"owners"`
}

// FilePage is one page of a files.list response.
type FilePage struct {
	Files         []FileRecord
	NextPageToken string
}

// PermissionRequest is the body of a permissions.create call.
type PermissionRequest struct {
	Type         string `json:"type"`
	Role         string `json:"role"`
	EmailAddress string `json:"emailAddress"`
	PendingOwner bool   `json:"pendingOwner"`
}

// NewPendingOwnerRequest builds the writer + pending-owner invitation for email.
func NewPendingOwnerRequest(email string) PermissionRequest {
	return PermissionRequest{
		Type:         TypeUser,
		Role:         RoleWriter,
		EmailAddress: email,
		PendingOwner: true,
	}
}

// PermissionUpdate is the body of a permissions.update call.
type PermissionUpdate struct {
	Role         string `json:"role"`
	PendingOwner bool   `json:"pendingOwner"`
}

// PendingOwnerUpdate reasserts writer + pending owner on an existing permission.
func PendingOwnerUpdate() PermissionUpdate {
	return PermissionUpdate{Role: RoleWriter, PendingOwner: true}
}

// CreateOptions are the query parameters of a permissions.create call.
type CreateOptions struct {
	SendNotificationEmail bool
	EmailMessage          string
	MoveToNewOwnersRoot   bool
}

// PermissionRecord is a permission as returned by the API.
type PermissionRecord struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Role         string `json:"role"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	PendingOwner bool   `json:"pendingOwner"`
}

// User is the authenticated account as reported by about.get.
type User struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	PermissionID string `json:"permissionId"`
}
