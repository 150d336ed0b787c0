package main

import "github.com/gaurav-prasanna/wipipe/cmd"

func main() {
	cmd.Execute()
}
