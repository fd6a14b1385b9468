package core

// # Error Codes Reference
//
// User-facing messages carry a code that users can quote to support staff.
// Codes are grouped by category:
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Dataset file missing: The dataset file could not be found
//	        Action: Check the file path in the dataset configuration
//	        Patterns: fs.ErrNotExist, "no such file", "cannot find the file"
//
//	DS002 - Permission denied: The dataset file could not be opened
//	        Action: Check the file permissions of the dataset
//	        Patterns: fs.ErrPermission, "permission denied"
//
//	DS003 - Encoding error: The dataset encoding is not supported
//	        Action: Use an encoding such as utf-8 or windows-1251
//	        Patterns: "encoding error"
//
//	DS004 - Header error: The dataset header row could not be read
//	        Action: Configure explicit columns for headerless files
//	        Patterns: "header could not be read"
//
//	DS005 - Dataset not found: No dataset has this identifier
//	        Action: List datasets to see the configured identifiers
//	        Patterns: "dataset not found"
//
// # Search Errors (SRCH001-SRCH099)
//
//	SRCH001 - System busy: Too many searches in progress
//	          Action: Please wait a moment and try again
//	          Patterns: "too many concurrent searches"
//
//	SRCH002 - Empty query: No query was given
//	          Action: Enter a phone number, email address or name
//	          Patterns: "empty query"
//
//	SRCH003 - No datasets: No dataset file is available
//	          Action: Check the dataset configuration and files
//	          Patterns: "no datasets available"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original technical error.
//
// Sentinel checks run first, then patterns are matched case-insensitively
// with strings.Contains. The first match wins.

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileMissing = UserMessage{
		Message: "The dataset file could not be found",
		Action:  "Check the file path in the dataset configuration",
		Code:    "DS001",
	}
	msgPermission = UserMessage{
		Message: "The dataset file could not be opened",
		Action:  "Check the file permissions of the dataset",
		Code:    "DS002",
	}
)

// errorSentinel maps a wrapped sentinel error to a user message.
type errorSentinel struct {
	target error
	msg    UserMessage
}

var errorSentinels = []errorSentinel{
	{target: fs.ErrNotExist, msg: msgFileMissing},
	{target: fs.ErrPermission, msg: msgPermission},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// More specific patterns must come before general ones.
var errorPatterns = []errorPattern{
	// Dataset errors
	{pattern: "no such file", msg: msgFileMissing},
	{pattern: "cannot find the file", msg: msgFileMissing},
	{pattern: "permission denied", msg: msgPermission},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "The dataset encoding is not supported",
			Action:  "Use an encoding such as utf-8 or windows-1251",
			Code:    "DS003",
		},
	},
	{
		pattern: "header could not be read",
		msg: UserMessage{
			Message: "The dataset header row could not be read",
			Action:  "Configure explicit columns for headerless files",
			Code:    "DS004",
		},
	},
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "No dataset has this identifier",
			Action:  "List datasets to see the configured identifiers",
			Code:    "DS005",
		},
	},

	// Search errors
	{
		pattern: "too many concurrent searches",
		msg: UserMessage{
			Message: "System is busy processing other searches",
			Action:  "Please wait a moment and try again",
			Code:    "SRCH001",
		},
	},
	{
		pattern: "empty query",
		msg: UserMessage{
			Message: "No query was given",
			Action:  "Enter a phone number, email address or name",
			Code:    "SRCH002",
		},
	},
	{
		pattern: "no datasets available",
		msg: UserMessage{
			Message: "No dataset file is available",
			Action:  "Check the dataset configuration and files",
			Code:    "SRCH003",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a more specific query or try again later",
			Code:    "REQ002",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Wrapped sentinels are checked first, then the known patterns. If nothing
// matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	_, err := os.Open("missing.csv")
//	msg := MapError(err)
//	// msg.Code == "DS001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, es := range errorSentinels {
		if errors.Is(err, es.target) {
			return es.msg
		}
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
