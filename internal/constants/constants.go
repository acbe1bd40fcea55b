package constants

// Session / context keys
const (
	ContextKeyUserID = "user_id"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxTitleLength    = 255
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
