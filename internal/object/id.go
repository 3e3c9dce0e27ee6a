// Package object defines the content-addressed model: commits, trees, file
// references, views, and operations, together with their typed identifiers.
package object

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// HashHexLen is the hex length of a sha256 content hash.
	HashHexLen = 64

	// ChangeIDHexLen is the hex length of a change id.
	ChangeIDHexLen = 32

	// ShortIDLen is the display length used for commit, change and
	// operation ids in listings.
	ShortIDLen = 12
)

var hexRegex = regexp.MustCompile(`\A[0-9a-f]+\z`)

// CommitID identifies a commit by its content hash.
type CommitID string

// TreeID identifies a tree by its content hash.
type TreeID string

// BlobID identifies a file blob by its content hash.
type BlobID string

// ChangeID survives commit rewrites; two commits sharing a change id are
// revisions of the same logical change.
type ChangeID string

// OperationID identifies one node in the operation log.
type OperationID string

// ViewID identifies an encoded view by its content hash.
type ViewID string

// RootCommitID is the well-known sentinel for the single root commit. The
// root is synthesized by the store and never written.
var RootCommitID = CommitID(strings.Repeat("0", HashHexLen))

// EmptyTreeID is the sentinel for the empty tree backing the root commit.
var EmptyTreeID = TreeID(strings.Repeat("0", HashHexLen))

// RootChangeID is the change id carried by the root commit.
var RootChangeID = ChangeID(strings.Repeat("0", ChangeIDHexLen))

func validHash(s string) error {
	if len(s) != HashHexLen {
		return fmt.Errorf("invalid hash length %d, expected %d", len(s), HashHexLen)
	}
	if !hexRegex.MatchString(s) {
		return fmt.Errorf("hash %q is not lowercase hex", s)
	}
	return nil
}

// NewCommitID validates hex and returns it as a CommitID.
func NewCommitID(hexID string) (CommitID, error) {
	if err := validHash(hexID); err != nil {
		return "", fmt.Errorf("parsing commit id: %w", err)
	}
	return CommitID(hexID), nil
}

func (id CommitID) String() string { return string(id) }

// Short returns the truncated display form of the id.
func (id CommitID) Short(n int) string { return shortHex(string(id), n) }

func (id CommitID) IsRoot() bool { return id == RootCommitID }

func (id TreeID) String() string { return string(id) }
func (id TreeID) IsEmpty() bool  { return id == EmptyTreeID }

func (id BlobID) String() string { return string(id) }
func (id ViewID) String() string { return string(id) }

func (id ChangeID) String() string { return string(id) }

func (id ChangeID) Short(n int) string { return shortHex(string(id), n) }

func (id OperationID) String() string { return string(id) }

func (id OperationID) Short(n int) string { return shortHex(string(id), n) }

// IsHexPrefix reports whether s could be a prefix of some hex id. The empty
// string is not a usable prefix.
func IsHexPrefix(s string) bool {
	return s != "" && len(s) <= HashHexLen && hexRegex.MatchString(s)
}

// NewChangeID generates a fresh random change id.
func NewChangeID() ChangeID {
	id := uuid.New()
	return ChangeID(hex.EncodeToString(id[:]))
}

func shortHex(s string, n int) string {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
