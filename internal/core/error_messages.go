package core

// # Error Codes Reference
//
// Technical errors are mapped to user-facing messages with a code that can be
// quoted to support staff.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	DB002 - Connection reset: Database connection was interrupted
//	DB003 - Timeout: Query took too long
//	DB004 - Missing column: A column configured for this view does not exist
//	DB005 - Missing table: The table behind this view does not exist
//	DB006 - Permission denied: The dashboard may not read this table
//
// # View Errors (VIEW001-VIEW099)
//
//	VIEW001 - Unknown view
//	VIEW002 - Unknown column
//	VIEW003 - Table instance not found (expired or unmounted)
//	VIEW004 - Too many open tables
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid event
//	REQ002 - Malformed request body
//	REQ003 - Request cancelled
//	REQ004 - Request timed out
//
// Patterns are matched case-insensitively, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Wrap them with fmt.Errorf("%w: ...") to add detail; the
// wrapped message still maps to the same code.
var (
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownColumn = errors.New("unknown column")
)

func unknownColumn(view, column string) error {
	return fmt.Errorf("%w %q in view %s", ErrUnknownColumn, column, view)
}

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// View Errors
	// =========================================================================
	{
		pattern: "unknown view",
		msg: UserMessage{
			Message: "This view does not exist",
			Action:  "Pick a view from the dashboard",
			Code:    "VIEW001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "This column does not exist in the view",
			Action:  "Reload the view and try again",
			Code:    "VIEW002",
		},
	},
	{
		pattern: "instance not found",
		msg: UserMessage{
			Message: "This table is no longer open",
			Action:  "Reload the page to open it again",
			Code:    "VIEW003",
		},
	},
	{
		pattern: "too many instances",
		msg: UserMessage{
			Message: "Too many tables are open",
			Action:  "Close some tables or try again later",
			Code:    "VIEW004",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "invalid event",
		msg: UserMessage{
			Message: "The table did not understand this action",
			Action:  "Reload the page and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "decode request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request body and try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the search or try again later",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Database Errors
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Query took too long",
			Action:  "Narrow the search or add a filter",
			Code:    "DB003",
		},
	},
	{
		pattern: "column",
		msg: UserMessage{
			Message: "A column configured for this view does not exist",
			Action:  "Contact an administrator to check the view definition",
			Code:    "DB004",
		},
	},
	{
		pattern: "relation",
		msg: UserMessage{
			Message: "The table behind this view does not exist",
			Action:  "Contact an administrator to check the database schema",
			Code:    "DB005",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The dashboard is not allowed to read this table",
			Action:  "Contact an administrator to grant access",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error and the ERR000 message when
// no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
