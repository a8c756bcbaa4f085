package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/eeye/internal/ctl"
)

func main() {
	if err := ctl.NewApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
