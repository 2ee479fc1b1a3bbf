package main

import "github.com/MeKo-Tech/colorstrip/internal/cmd"

func main() {
	cmd.Execute()
}
