package main

import "github.com/soocke/cursor-pilot/cmd"

func main() {
	cmd.Execute()
}
