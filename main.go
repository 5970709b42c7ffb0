package main

import "github.com/jcdickinson/ferrishover/cmd"

func main() {
	cmd.Execute()
}
