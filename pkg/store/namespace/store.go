package namespace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store is the transactional persistence contract for the per-owner
// folder/file forest and its sharing grants.
//
// Folders, files and grants live in one transaction domain on purpose:
// deleting a file must remove its grants in the same transaction, and
// deleting a folder must remove the whole subtree (grants included) or
// nothing at all. Splitting grants into a separate store would make that
// cascade impossible to guarantee.
//
// Invariant Enforcement:
//
// Every implementation enforces the namespace invariants inside its own
// transaction, not as a check-then-act sequence at the call site:
//   - Sibling uniqueness: no two folders (or files) with the same owner,
//     parent and title. Root level counts as a shared nil parent.
//   - Parentage: a parent/destination folder must exist and belong to the
//     same owner.
//   - Acyclicity: a folder is never its own ancestor. MoveFolder walks
//     the ancestor chain of the destination inside the transaction.
//   - Grant uniqueness: at most one grant per (file, grantee) pair.
//
// Two concurrent CreateFolder calls with the same (owner, parent, title)
// therefore yield exactly one success and one ErrConflict, whichever
// implementation backs the store.
//
// Error Handling:
//
// Business failures are returned as *StoreError. The usual precedence is:
// missing entity → ErrNotFound; entity exists but belongs to someone
// else → ErrForbidden; title/grant collision → ErrConflict; structural
// violations → ErrInvalidOperation. Infrastructure failures are wrapped
// plain errors.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// ========================================================================
	// Folder Operations
	// ========================================================================

	// CreateFolder creates a folder under parentID (nil = root) for owner.
	//
	// The title must already be sanitized (see CleanTitle); the store only
	// enforces uniqueness and parentage.
	//
	// Returns:
	//   - ErrNotFound if parentID is set and no such folder exists for owner
	//   - ErrForbidden if the parent exists but belongs to another user
	//   - ErrConflict if a sibling folder already has this title
	CreateFolder(ctx context.Context, owner UserID, parentID *uuid.UUID, title string) (*Folder, error)

	// GetFolder returns a folder by id regardless of owner.
	//
	// Ownership decisions belong to the caller (the drive layer's guard);
	// this is a plain metadata read. Returns ErrNotFound if absent.
	GetFolder(ctx context.Context, folderID uuid.UUID) (*Folder, error)

	// RenameFolder changes a folder's title in place.
	//
	// Returns ErrNotFound / ErrForbidden as usual and ErrConflict if a
	// sibling under the same parent already carries newTitle.
	RenameFolder(ctx context.Context, owner UserID, folderID uuid.UUID, newTitle string) (*Folder, error)

	// MoveFolder reparents a folder to newParentID (nil = root).
	//
	// Rejects moves into the folder itself or any of its descendants with
	// ErrInvalidOperation; the check is an ancestor walk from the
	// destination up to root, performed inside the transaction so a
	// concurrent move cannot slip a cycle past it.
	//
	// Returns ErrConflict if the destination already contains a folder
	// with the same title.
	MoveFolder(ctx context.Context, owner UserID, folderID uuid.UUID, newParentID *uuid.UUID) (*Folder, error)

	// DeleteFolderTree removes a folder and every descendant folder, file
	// and dependent grant in one transaction.
	//
	// The full descendant set is collected first, then deleted bottom-up:
	// grants, files, then folders from the leaves toward the argument
	// folder. If any step fails nothing is committed.
	//
	// The returned CascadeResult lists the removed files so the caller
	// can delete their blobs after the transaction commits.
	DeleteFolderTree(ctx context.Context, owner UserID, folderID uuid.UUID) (*CascadeResult, error)

	// ListChildren returns the immediate children of folderID (nil =
	// root level) for owner: folders first, then files, each group
	// ordered lexicographically by title. The result is a materialized
	// slice, not a cursor.
	//
	// Returns ErrNotFound / ErrForbidden when folderID is set and missing
	// or foreign-owned.
	ListChildren(ctx context.Context, owner UserID, folderID *uuid.UUID) ([]Entry, error)

	// ========================================================================
	// File Operations
	// ========================================================================

	// CreateFile inserts a file row. The input carries Title (sanitized),
	// FolderID, BlobKey, SizeBytes, Extension and optional ThumbnailKey;
	// the store assigns the ID and stamps OwnerID.
	//
	// Returns ErrNotFound/ErrForbidden for a bad containing folder and
	// ErrConflict when a sibling file already has the title. Folder and
	// file titles are independent namespaces: a folder "notes" and a file
	// "notes" may coexist in the same place.
	CreateFile(ctx context.Context, owner UserID, file *File) (*File, error)

	// GetFile returns a file by id regardless of owner. ErrNotFound if
	// absent.
	GetFile(ctx context.Context, fileID uuid.UUID) (*File, error)

	// RenameFile changes a file's title in place, with the same error
	// contract as RenameFolder.
	RenameFile(ctx context.Context, owner UserID, fileID uuid.UUID, newTitle string) (*File, error)

	// MoveFile relocates a file to newFolderID (nil = root), failing with
	// ErrConflict when the destination already has a file of that title.
	MoveFile(ctx context.Context, owner UserID, fileID uuid.UUID, newFolderID *uuid.UUID) (*File, error)

	// DeleteFile removes a file row and its grants in one transaction and
	// returns the removed file so the caller can delete the blob.
	DeleteFile(ctx context.Context, owner UserID, fileID uuid.UUID) (*File, error)

	// ========================================================================
	// Sharing Grants
	// ========================================================================

	// CreateGrant inserts a grant. The grant arrives fully validated by
	// the sharing ledger (future expiry, no self-share); the store
	// assigns the ID and enforces:
	//   - ErrNotFound / ErrForbidden for the file vs. grant.GrantorID
	//   - ErrConflict if a grant for (FileID, GranteeID) already exists
	CreateGrant(ctx context.Context, grant *SharingGrant) (*SharingGrant, error)

	// UpdateGrant replaces the permissions and expiry of an existing
	// grant owned by owner. Idempotent with identical arguments.
	UpdateGrant(ctx context.Context, owner UserID, grantID uuid.UUID, permissions Permission, expiresAt time.Time) (*SharingGrant, error)

	// DeleteGrant removes a grant owned by owner.
	DeleteGrant(ctx context.Context, owner UserID, grantID uuid.UUID) error

	// GetGrant returns a grant by id regardless of grantor. ErrNotFound
	// if absent.
	GetGrant(ctx context.Context, grantID uuid.UUID) (*SharingGrant, error)

	// FindGrant returns the grant for (fileID, grantee), expired or not.
	// ErrNotFound if none exists.
	FindGrant(ctx context.Context, fileID uuid.UUID, grantee UserID) (*SharingGrant, error)

	// GrantsByOwner returns all grants on files owned by owner, ordered
	// by creation time.
	GrantsByOwner(ctx context.Context, owner UserID) ([]SharingGrant, error)

	// GrantsByGrantee returns all grants where grantee is the recipient,
	// ordered by creation time.
	GrantsByGrantee(ctx context.Context, grantee UserID) ([]SharingGrant, error)

	// DeleteExpiredGrants removes every grant with ExpiresAt <= now and
	// returns how many were removed. The sharing ledger calls this
	// opportunistically before reads; nothing schedules it on a timer.
	DeleteExpiredGrants(ctx context.Context, now time.Time) (int, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Healthcheck verifies the store can serve requests. Implementations
	// with external dependencies check connectivity; in-memory stores
	// return nil.
	Healthcheck(ctx context.Context) error

	// Close releases the store's resources. The store must not be used
	// afterwards.
	Close() error
}
