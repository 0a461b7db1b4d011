package main

import "github.com/KaramelBytes/tabula/cmd"

func main() {
	cmd.Execute()
}
