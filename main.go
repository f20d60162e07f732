package main

import "github.com/caredesk/case-management/cmd"

func main() {
	cmd.Execute()
}
