package main

import "github.com/qobs-build/wgslpp/cmd"

func main() {
	cmd.Execute()
}
