package main

import (
	"os"

	"github.com/TambeNeel/clinical-trial-matchmaker/cmd/matchmaker"
)

func main() {
	if err := matchmaker.Execute(); err != nil {
		os.Exit(1)
	}
}
