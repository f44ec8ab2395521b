package main

import "github.com/Layr-Labs/season-points/cmd"

func main() {
	cmd.Execute()
}
