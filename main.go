package main

import (
	"os"

	"github.com/Mohsinsiddi/tokendesk/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
