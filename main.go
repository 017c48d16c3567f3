package main

import "github.com/kittygram/kittygram-api/cmd"

func main() {
	cmd.Execute()
}
