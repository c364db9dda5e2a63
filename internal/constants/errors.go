package constants

import "errors"

// Configuration errors.
var (
	ErrNoRefreshToken     = errors.New("no refresh token stored, please run 'crest login' again")
	ErrNotAuthenticated   = errors.New("not authenticated, use 'crest login' first")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidOutput      = errors.New("invalid output format (table, json, yaml)")
	ErrCodeRequired       = errors.New("--code flag is required")
	ErrClientIDRequired   = errors.New("client ID is required (use --client-id or 'crest config set client_id')")
	ErrRedirectURIMissing = errors.New("redirect URI is required (use --redirect-uri or 'crest config set redirect_uri')")
)
