package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoCredential  = errors.New("no credential stored")
	ErrNotModified   = errors.New("remote collection not modified")
	ErrSyncBusy      = errors.New("sync already in progress")
	ErrRootImmutable = errors.New("root folders are immutable")
)
