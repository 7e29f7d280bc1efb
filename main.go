package main

import (
	"github.com/ngsast/bestfix/cmd"
)

func main() {
	cmd.Execute()
}
