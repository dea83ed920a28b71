package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSessionNotFound   = errors.New("explorer session not found")
	ErrNoTableSelected   = errors.New("no table selected")
	ErrNoColumnsSelected = errors.New("no columns selected")
	ErrCatalogLoading    = errors.New("catalog load already in progress")
	ErrStaleResponse     = errors.New("stale query response discarded")
	ErrUnknownCommand    = errors.New("unknown explorer command")
)
