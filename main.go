package main

import (
	"github.com/orbitlytics/neocollector/internal/cmd"
)

func main() {
	cmd.Execute()
}
