package main

import "fmusic/cmd"

func main() {
	cmd.Execute()
}
