// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	rootCmd := newRoot().Command()

	if cmd, err := rootCmd.ExecuteC(); err != nil {
		if _, ok := err.(usageError); ok {
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		}
		log.Debugf("%+v", err)
		os.Exit(1)
	}
}
