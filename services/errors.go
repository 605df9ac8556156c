package services

import (
	"errors"
	"fmt"
)

// ErrUnreadableFile is returned when an uploaded workbook cannot be parsed at all.
// Nothing is merged when a session fails with it.
var ErrUnreadableFile = errors.New("unreadable file")

// ErrUnsupportedFormat wraps ErrUnreadableFile for extensions other than .csv/.xlsx.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format, must be .csv or .xlsx", ErrUnreadableFile)

var (
	ErrSessionUsed               = errors.New("import session already started")
	ErrImportInProgress          = errors.New("another import is already running for this store")
	ErrDuplicateRosterIdentifier = errors.New("duplicate truck number in roster")
	ErrUnknownImportKind         = errors.New("unknown import kind")
)

// SyncError collects the per-truck failures of one sync attempt.
type SyncError struct {
	Failures []string
}

func (e *SyncError) Error() string {
	if len(e.Failures) == 1 {
		return "sync failed: " + e.Failures[0]
	}
	return fmt.Sprintf("sync failed for %d trucks (first: %s)", len(e.Failures), e.Failures[0])
}
