// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the sprocket CLI.
package main

import (
	"sprocket/cli/cmd"
)

func main() {
	cmd.Execute()
}
