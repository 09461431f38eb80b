package main

import "github.com/MeKo-Tech/topomap/internal/cmd"

func main() {
	cmd.Execute()
}
