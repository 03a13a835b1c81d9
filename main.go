package main

import "roastme-backend/cmd"

func main() {
	cmd.Run()
}
