package main

import "github.com/tonimelisma/gdrive-ownership/cmd"

func main() {
	cmd.Execute()
}
