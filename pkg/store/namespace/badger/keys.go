package badger

import (
	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the different
// record types into namespaces. This prevents collisions, keeps point
// lookups O(1), and lets directory listings and subtree walks run as
// range scans over a single prefix.
//
// Key Namespace Prefixes:
//
// Data Type          Prefix  Key Format                                   Value
// ============================================================================
// Folder records     "fo:"   fo:<folderUUID>                              Folder (JSON)
// File records       "fi:"   fi:<fileUUID>                                File (JSON)
// Grant records      "g:"    g:<grantUUID>                                SharingGrant (JSON)
// Folder siblings    "cf:"   cf:<ownerUUID>:<parentKey>:<title>           folderUUID (16 bytes)
// File siblings      "cl:"   cl:<ownerUUID>:<parentKey>:<title>           fileUUID (16 bytes)
// Grant uniqueness   "gf:"   gf:<fileUUID>:<granteeUUID>                  grantUUID (16 bytes)
//
// parentKey is the parent folder's UUID string, or the literal "root"
// for top-level entries. Titles go last in the key so they may contain
// any character, ':' included: the parser strips the fixed-width prefix
// and treats the remainder as the title.
//
// The sibling indexes are the uniqueness constraint: a create or rename
// inserts the index key only after verifying it is absent, all inside
// one transaction. Badger's SSI detects the concurrent case (both
// transactions read-miss the same key, both write it) and aborts one of
// them, which the store turns into a clean retry and ultimately an
// ErrConflict. They double as the listing and subtree-walk index.

const (
	// prefixFolder is the key prefix for folder records.
	prefixFolder = "fo:"

	// prefixFile is the key prefix for file records.
	prefixFile = "fi:"

	// prefixGrant is the key prefix for grant records.
	prefixGrant = "g:"

	// prefixFolderChild is the key prefix for the folder sibling index.
	prefixFolderChild = "cf:"

	// prefixFileChild is the key prefix for the file sibling index.
	prefixFileChild = "cl:"

	// prefixGrantIndex is the key prefix for the (file, grantee) index.
	prefixGrantIndex = "gf:"

	// rootParentKey is the parentKey segment that stands in for a nil
	// parent reference.
	rootParentKey = "root"
)

// parentKey renders an optional parent reference as a key segment.
func parentKey(parentID *uuid.UUID) string {
	if parentID == nil {
		return rootParentKey
	}
	return parentID.String()
}

// keyFolder generates the key for a folder record.
func keyFolder(id uuid.UUID) []byte {
	return []byte(prefixFolder + id.String())
}

// keyFile generates the key for a file record.
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// keyGrant generates the key for a grant record.
func keyGrant(id uuid.UUID) []byte {
	return []byte(prefixGrant + id.String())
}

// keyFolderChild generates the folder sibling index key.
func keyFolderChild(owner namespace.UserID, parentID *uuid.UUID, title string) []byte {
	return []byte(prefixFolderChild + owner.String() + ":" + parentKey(parentID) + ":" + title)
}

// keyFileChild generates the file sibling index key.
func keyFileChild(owner namespace.UserID, folderID *uuid.UUID, title string) []byte {
	return []byte(prefixFileChild + owner.String() + ":" + parentKey(folderID) + ":" + title)
}

// keyFolderChildScan generates the range-scan prefix for all folder
// children of one parent.
func keyFolderChildScan(owner namespace.UserID, parentID *uuid.UUID) []byte {
	return []byte(prefixFolderChild + owner.String() + ":" + parentKey(parentID) + ":")
}

// keyFileChildScan generates the range-scan prefix for all file children
// of one parent.
func keyFileChildScan(owner namespace.UserID, folderID *uuid.UUID) []byte {
	return []byte(prefixFileChild + owner.String() + ":" + parentKey(folderID) + ":")
}

// keyGrantIndex generates the (file, grantee) uniqueness key.
func keyGrantIndex(fileID uuid.UUID, grantee namespace.UserID) []byte {
	return []byte(prefixGrantIndex + fileID.String() + ":" + grantee.String())
}

// keyGrantIndexScan generates the range-scan prefix for all grants on
// one file.
func keyGrantIndexScan(fileID uuid.UUID) []byte {
	return []byte(prefixGrantIndex + fileID.String() + ":")
}
