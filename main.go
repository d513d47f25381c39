package main

import (
	"os"

	"github.com/sahilg28/skillsync-backend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
