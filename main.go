package main

import (
	"os"

	"github.com/crewdesk/crewdesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
