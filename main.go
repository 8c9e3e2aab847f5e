package main

import "github.com/markb/galerie/cmd"

func main() {
	cmd.Execute()
}
