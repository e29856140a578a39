package main

import "github.com/user20357/screensage-cloud/cmd"

func main() {
	cmd.Execute()
}
