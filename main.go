package main

import "github.com/lukman83/pkdeals/cmd"

func main() {
	cmd.Execute()
}
