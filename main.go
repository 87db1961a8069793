package main

import "github.com/padelt/beanquery/cmd"

func main() {
	cmd.Execute()
}
