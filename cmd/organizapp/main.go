package main

import "github.com/nfrund/organizapp/cmd/organizapp/cmd"

func main() {
	cmd.Execute()
}
