// Package main is the entry point for the scoutmetrics CLI tool, which imports
// football season statistics and ranks players per role across leagues.
package main

import "github.com/pable/go-scout-metrics/cmd"

func main() {
	cmd.Execute()
}
