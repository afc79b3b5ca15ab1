package utils

import (
	"fmt"
	"io"
	"os"
)

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fatalf(os.Stderr, format, args...)
	os.Exit(1)
}

func fatalf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
}
