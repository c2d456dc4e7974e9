package main

import "github.com/nextlevelbuilder/guildforge/cmd"

func main() {
	cmd.Execute()
}
