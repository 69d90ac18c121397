package constants

import "errors"

// Configuration errors.
var (
	ErrNoZoteroLibrary  = errors.New("no Zotero library configured, set zotero.user_id or zotero.group_id")
	ErrNoZoteroKey      = errors.New("no Zotero API key configured, set zotero.api_key")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrInvalidOutput    = errors.New("invalid output format, use table, json or yaml")
)

// Command errors.
var (
	ErrInvalidFilter       = errors.New("invalid filter, expected key:value")
	ErrCacheDisabled       = errors.New("cache is disabled")
	ErrUnsupportedProtocol = errors.New("unsupported MCP transport, use stdio or sse")
)

// Selection errors.
var (
	ErrSelectionNotFound  = errors.New("selection not found")
	ErrSelectionExists    = errors.New("selection already exists")
	ErrNoActiveSelection  = errors.New("no active selection, run: papers selection list")
	ErrInvalidSelection   = errors.New("invalid selection name, use only letters, digits, - and _")
	ErrEntryNotFound      = errors.New("paper not found in selection")
	ErrCannotResolvePaper = errors.New("could not resolve paper")
)
