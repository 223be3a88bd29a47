// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by kiln's tests: environment
// isolation (MustSetenv, IsolateHome), file fixtures (MustWriteFile,
// WriteExecutable) and a manually advanced clock.
package testutil
