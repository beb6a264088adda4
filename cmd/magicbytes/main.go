package main

import "github.com/petrarca/magicbytes/internal/cmd"

func main() {
	cmd.Execute()
}
