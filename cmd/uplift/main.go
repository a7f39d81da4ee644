// main is the entry point for the uplift CLI.
package main

import (
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/cmd"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
