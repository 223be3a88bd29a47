// SPDX-License-Identifier: MPL-2.0

// Package issue defines the error shapes the CLI knows how to present:
// ActionableError for failures with context and recovery hints, and
// QuietExit for outcomes that end the process without a message.
package issue
