package main

import "github.com/flowmail/mailtask/cmd"

func main() {
	cmd.Execute()
}
