package main

import "github.com/findingthem/findingthem/cmd"

func main() {
	cmd.Execute()
}
