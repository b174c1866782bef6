// Package core provides the flow map normalization pipeline.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Malformed CSV: File is not valid delimiter-separated text
//	          Patterns: "malformed csv"
//
//	FILE003 - Binary content: File looks like binary data
//	          Patterns: "binary content"
//
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//
//	FILE005 - Sheet not found: The requested worksheet does not exist
//	          Patterns: "sheet not found"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Unknown entity: Data type must be locations or flows
//	         Patterns: "unknown entity type"
//
//	VAL002 - Invalid mapping: Field mapping could not be read
//	         Patterns: "invalid mapping"
//
//	VAL003 - Invalid config: Property configuration could not be read
//	         Patterns: "invalid config"
//
//	VAL004 - Invalid time bucket: Bucket must be exact, hour or day
//	         Patterns: "invalid time bucket"
//
//	VAL005 - Invalid request: Request body could not be decoded
//	         Patterns: "invalid request"
//
//	VAL006 - Unknown template: No template has the requested name
//	         Patterns: "template not found"
//
// # Project Errors (PRJ001-PRJ099)
//
//	PRJ001 - Project not found
//	         Patterns: "project not found"
//
//	PRJ002 - Project incomplete: Location or flow data has not been uploaded
//	         Patterns: "missing location or flow data"
//
//	PRJ003 - Name required
//	         Patterns: "project name is required"
//
//	PRJ004 - Invalid project id
//	         Patterns: "invalid project id"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many imports in progress
//	         Patterns: "too many concurrent imports"
//
//	UPL002 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL003 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB003 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check application logs for the original
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (lowercase) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "malformed csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check for unbalanced quotes and make sure the file is comma-separated",
			Code:    "FILE002",
		},
	},
	{
		pattern: "binary content",
		msg: UserMessage{
			Message: "File looks like binary data",
			Action:  "Export the data as CSV or XLSX and upload that file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The requested worksheet does not exist",
			Action:  "Check the sheet name or leave it empty to use the first sheet",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Validation Errors
	// =========================================================================
	{
		pattern: "unknown entity type",
		msg: UserMessage{
			Message: "Unknown data type",
			Action:  "Use locations or flows",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid mapping",
		msg: UserMessage{
			Message: "Field mapping could not be read",
			Action:  "Send the mapping as an object of field to column name",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid config",
		msg: UserMessage{
			Message: "Property configuration could not be read",
			Action:  "Send the configuration as an object of string values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid time bucket",
		msg: UserMessage{
			Message: "Unknown time bucket",
			Action:  "Use exact, hour or day",
			Code:    "VAL004",
		},
	},
	{
		pattern: "template not found",
		msg: UserMessage{
			Message: "Unknown template",
			Action:  "Pick a template from the template list",
			Code:    "VAL006",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Request could not be read",
			Action:  "Check the request body is valid JSON",
			Code:    "VAL005",
		},
	},

	// =========================================================================
	// Project Errors
	// =========================================================================
	{
		pattern: "invalid project id",
		msg: UserMessage{
			Message: "Invalid project link",
			Action:  "Open the project from the project list",
			Code:    "PRJ004",
		},
	},
	{
		pattern: "project not found",
		msg: UserMessage{
			Message: "Project not found",
			Action:  "It may have been deleted. Reload the project list",
			Code:    "PRJ001",
		},
	},
	{
		pattern: "missing location or flow data",
		msg: UserMessage{
			Message: "Project has no location or flow data yet",
			Action:  "Upload both a locations and a flows file",
			Code:    "PRJ002",
		},
	},
	{
		pattern: "project name is required",
		msg: UserMessage{
			Message: "Project name is required",
			Action:  "Enter a name for the project",
			Code:    "PRJ003",
		},
	},

	// =========================================================================
	// Upload Errors
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
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
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
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

// FormatUserError formats err as "Message (Code: XXX). Action".
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

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
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
