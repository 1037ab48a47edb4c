package main

import "drive-cache/cmd"

func main() {
	cmd.Execute()
}
