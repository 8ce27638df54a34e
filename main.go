package main

import "github.com/ValentinKolb/davlock/cmd"

func main() {
	cmd.Execute()
}
