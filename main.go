package main

import "github.com/iksnae/clog/cmd"

func main() {
	cmd.Execute()
}
