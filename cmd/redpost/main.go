package main

import "github.com/jmcleod/redpost/cmd/redpost/cmd"

func main() {
	cmd.Execute()
}
