package main

import "github.com/chrisdamba/reviewclf/cmd"

func main() {
	cmd.Execute()
}
