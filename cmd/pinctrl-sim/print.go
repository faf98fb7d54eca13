package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

func infof(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.GreenString("Info: ")+fmt.Sprintf(format, a...))
}

func warningf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.YellowString("Warning: ")+fmt.Sprintf(format, a...))
}

func errorf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, color.RedString("Error: ")+fmt.Sprintf(format, a...))
}

func verdict(ok bool) string {
	if ok {
		return color.GreenString("PASS")
	}
	return color.RedString("FAIL")
}
