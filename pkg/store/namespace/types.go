package namespace

import (
	"time"

	"github.com/google/uuid"
)

// UserID identifies an account in the surrounding system.
//
// The namespace layer never authenticates users; it receives an already
// authenticated identity from the caller and uses it only for ownership
// and grant checks.
type UserID = uuid.UUID

// Folder is a node of a user's namespace tree.
//
// Folders are scoped to their owner: two users can both have a root folder
// called "Documents" without conflict. Within one owner's tree, sibling
// folders must have distinct titles. A nil ParentID places the folder at
// the root level, which behaves like an implicit parent shared by all of
// the owner's top-level entries.
type Folder struct {
	// ID is the stable identifier of the folder. It never changes across
	// renames or moves.
	ID uuid.UUID `json:"id"`

	// Title is the display name, sanitized of markup and at most
	// MaxTitleLength characters.
	Title string `json:"title"`

	// ParentID references the containing folder, or nil for root level.
	// The parent is always owned by the same user.
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	// OwnerID is the user holding full mutation rights over this folder.
	OwnerID UserID `json:"owner_id"`
}

// File is a leaf of a user's namespace tree.
//
// The file row carries metadata only; the bytes live in a blob store and
// are addressed through BlobKey. Like folders, files are unique by
// (owner, containing folder, title).
type File struct {
	// ID is the stable identifier of the file.
	ID uuid.UUID `json:"id"`

	// Title is the display name, sanitized of markup and at most
	// MaxTitleLength characters.
	Title string `json:"title"`

	// FolderID references the containing folder, or nil for root level.
	FolderID *uuid.UUID `json:"folder_id,omitempty"`

	// OwnerID is the user holding full mutation rights over this file.
	OwnerID UserID `json:"owner_id"`

	// BlobKey locates the file content in the blob store. Opaque to this
	// package; the drive layer generates it at upload time.
	BlobKey string `json:"blob_key"`

	// SizeBytes is the content length as reported at upload time.
	SizeBytes int64 `json:"size_bytes"`

	// Extension is the original filename extension without the leading
	// dot ("pdf"), or empty when the upload had none. Callers building a
	// filename add the dot themselves.
	Extension string `json:"extension,omitempty"`

	// ThumbnailKey locates a preview image in the blob store, when one
	// exists. Thumbnail generation happens outside this library.
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
}

// Permission is a bitmask of actions a grantee may perform on a shared
// file.
type Permission uint8

const (
	// PermissionRead allows reading file metadata and downloading content.
	PermissionRead Permission = 1 << iota

	// PermissionRename allows changing the file's title.
	PermissionRename

	// PermissionDelete allows deleting the file (content included).
	PermissionDelete
)

// Has reports whether every bit of required is present in p.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// String renders the permission set as "read|rename|delete" for logs.
func (p Permission) String() string {
	if p == 0 {
		return "none"
	}

	var out string
	add := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}

	if p.Has(PermissionRead) {
		add("read")
	}
	if p.Has(PermissionRename) {
		add("rename")
	}
	if p.Has(PermissionDelete) {
		add("delete")
	}

	return out
}

// SharingGrant is a time-bounded, permission-scoped access grant on a
// single file, issued by the file's owner to another user.
//
// At most one grant exists per (file, grantee) pair. A grant whose
// ExpiresAt has passed is inactive; expired grants are removed lazily by
// the sharing ledger before any ledger read.
type SharingGrant struct {
	// ID is the stable identifier of the grant.
	ID uuid.UUID `json:"id"`

	// FileID references the shared file.
	FileID uuid.UUID `json:"file_id"`

	// GranteeID is the user receiving access. Never equal to the file's
	// owner.
	GranteeID UserID `json:"grantee_id"`

	// GrantorID is the file's owner at grant time.
	GrantorID UserID `json:"grantor_id"`

	// Permissions is the set of actions the grantee may perform.
	Permissions Permission `json:"permissions"`

	// CreatedAt is the grant creation time.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the moment the grant stops being active. Strictly
	// after CreatedAt.
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the grant is still valid at the given instant.
// A grant expires the moment now reaches ExpiresAt.
func (g *SharingGrant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// Entry is one row of a directory listing: either a folder or a file,
// reduced to the fields needed to render one level of the tree.
type Entry struct {
	// ID is the folder or file identifier.
	ID uuid.UUID `json:"id"`

	// Title is the display name.
	Title string `json:"title"`

	// IsFolder distinguishes folders from files.
	IsFolder bool `json:"is_folder"`

	// SizeBytes is the file size; always 0 for folders.
	SizeBytes int64 `json:"size_bytes"`

	// Extension is the file extension; always empty for folders.
	Extension string `json:"extension,omitempty"`
}

// CascadeResult describes what a recursive folder deletion removed.
//
// The metadata transaction has already committed when this is returned;
// the caller is responsible for deleting the listed files' blobs.
type CascadeResult struct {
	// Folders is the number of folders removed, including the one the
	// delete was called on.
	Folders int

	// Files lists every file row removed, in bottom-up deletion order.
	// Each entry still carries its BlobKey for content cleanup.
	Files []File

	// Grants is the number of sharing grants removed alongside the files.
	Grants int
}
