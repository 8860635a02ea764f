package main

import (
	"github.com/joho/godotenv"

	"device-access-control/cmd"
)

func main() {
	godotenv.Load()

	cmd.Execute()
}
