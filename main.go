package main

import "nutrition-tracker-backend/cmd"

func main() {
	cmd.Run()
}
