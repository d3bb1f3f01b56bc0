package main

import (
	"github.com/jjtimmons/cox1/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
