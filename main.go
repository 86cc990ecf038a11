// Package main is the entry point for the lolcoach CLI tool, which turns
// League of Legends match timelines into tracked death patterns.
package main

import "github.com/pable/go-lol-coach/cmd"

func main() {
	cmd.Execute()
}
