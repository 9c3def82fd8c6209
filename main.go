package main

import "remsort/cmd"

func main() {
	cmd.Execute()
}
