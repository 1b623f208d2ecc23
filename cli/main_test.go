package main

import (
	"testing"
)

func TestCLIVersion(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "mptindex", "--version")
	e.checkNextLine(t, "^mptindex$")
	e.checkNextLine(t, "^Version: ")
	e.checkNextLine(t, "^GoVersion: ")
	e.checkEOF(t)
}
