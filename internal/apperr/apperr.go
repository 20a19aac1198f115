// Package apperr turns technical errors into user-facing messages with a
// support code.
//
// # Error Codes Reference
//
// Argument errors (ARG001-ARG099):
//
//	ARG001 - An evaluation argument was rejected; the message is shown as-is.
//
// Size CSV errors (CSV001-CSV099):
//
//	CSV001 - Missing column: the header lacks a bundletool column
//	CSV002 - Ragged row: a row has a different number of fields than the header
//	CSV003 - Invalid size: MIN or MAX is not a whole number of bytes
//	CSV004 - Malformed CSV: quoting or structure could not be parsed
//
// bundletool errors (TOOL001-TOOL099):
//
//	TOOL001 - Download failed
//	TOOL002 - bundletool exited with an error
//	TOOL003 - java executable not found
//
// Run errors (RUN001-RUN099):
//
//	RUN001 - Run not found
//	RUN002 - Upload too large
//	RUN003 - Empty upload
//
// History database errors (DB001-DB099):
//
//	DB001 - Connection refused
//	DB002 - Operation timed out
//	DB003 - History disabled
//
// Request errors (REQ001-REQ099):
//
//	REQ001 - Request cancelled
//	REQ002 - Request deadline exceeded
//
// ERR000 is the fallback; check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring, first pattern wins.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/bundletool"
	"github.com/JonMunkholm/appsize/internal/policy"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type sentinel struct {
	target error
	msg    UserMessage
}

var sentinels = []sentinel{
	{android.ErrMissingColumn, UserMessage{
		Message: "The size CSV is missing a required column",
		Action:  "Upload the unmodified output of 'bundletool get-size total --dimensions=ALL'",
		Code:    "CSV001",
	}},
	{bundletool.ErrDownload, UserMessage{
		Message: "bundletool could not be downloaded",
		Action:  "Check network access to GitHub or the configured BUNDLETOOL_URL and version",
		Code:    "TOOL001",
	}},
	{bundletool.ErrToolFailed, UserMessage{
		Message: "bundletool failed to process the bundle",
		Action:  "Verify the bundle and signing key; details are in the logs",
		Code:    "TOOL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller upload or raise the configured timeout",
		Code:    "REQ002",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched in order against the lowercased error text.
var errorPatterns = []errorPattern{
	{"wrong number of fields", UserMessage{
		Message: "A row of the size CSV has the wrong number of fields",
		Action:  "Check the reported line for missing or extra commas",
		Code:    "CSV002",
	}},
	{"invalid byte count", UserMessage{
		Message: "A size in the CSV is not a whole number of bytes",
		Action:  "Check the MIN and MAX columns on the reported line",
		Code:    "CSV003",
	}},
	{"parse error on line", UserMessage{
		Message: "The size CSV could not be parsed",
		Action:  "Ensure the file is comma-separated with balanced quotes",
		Code:    "CSV004",
	}},
	{"executable file not found", UserMessage{
		Message: "Java is not installed or not on PATH",
		Action:  "Install a JRE or set JAVA_PATH",
		Code:    "TOOL003",
	}},
	{"run not found", UserMessage{
		Message: "Run not found",
		Action:  "The run may have expired; evaluate the report again",
		Code:    "RUN001",
	}},
	{"request body too large", UserMessage{
		Message: "The upload exceeds the maximum size",
		Action:  "Raise SERVER_MAX_BODY_BYTES or upload a smaller file",
		Code:    "RUN002",
	}},
	{"empty upload", UserMessage{
		Message: "The upload is empty",
		Action:  "Send the report or CSV as the request body",
		Code:    "RUN003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the history database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB002",
	}},
	{"history disabled", UserMessage{
		Message: "Run history is not enabled",
		Action:  "Set DATABASE_URL to keep run history",
		Code:    "DB003",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// Map converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func Map(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var argErr *policy.ArgumentError
	if errors.As(err, &argErr) {
		return UserMessage{
			Message: argErr.Message,
			Action:  "Correct the '" + argErr.Name + "' argument",
			Code:    "ARG001",
		}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.target) {
			return s.msg
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

// Format renders err as "Message (Code: XXX). Action".
func Format(err error) string {
	msg := Map(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && Map(err).Code != defaultMessage.Code
}
