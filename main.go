package main

import "field-ops/cmd"

func main() {
	cmd.Execute()
}
