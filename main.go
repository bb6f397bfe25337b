package main

import "github.com/josephlewis42/mysh/cmd"

func main() {
	cmd.Execute()
}
