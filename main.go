// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/gluepipe/gluepipe/cmd/gluepipe"

func main() {
	cmd.Execute()
}
