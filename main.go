package main

import "github.com/mbeckett/herald/cmd"

func main() {
	cmd.Execute()
}
