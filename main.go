// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/kilnhq/kiln/cmd/kiln"

func main() {
	cmd.Execute()
}
