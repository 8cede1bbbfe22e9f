package sandbox

import "fmt"

const (
	candidateFile = "codemod.go"
	harnessFile   = "zz_harness.go"
	binaryName    = "codemod.bin"
)

// Exit codes used by the harness itself, distinct from a panic's 2.
const (
	exitReadInput   = 70
	exitWriteOutput = 71
)

// harnessSource calls entry with all of stdin and writes the result to stdout.
func harnessSource(entry string) string {
	return fmt.Sprintf(`package main

import (
	"io"
	"os"
)

func main() {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		os.Stderr.WriteString("harness: reading input: " + err.Error() + "\n")
		os.Exit(%d)
	}
	out := %s(string(input))
	if _, err := io.WriteString(os.Stdout, out); err != nil {
		os.Stderr.WriteString("harness: writing output: " + err.Error() + "\n")
		os.Exit(%d)
	}
}
`, exitReadInput, entry, exitWriteOutput)
}

func goModSource(version string) string {
	return fmt.Sprintf("module codemint.local/arena\n\ngo %s\n", version)
}
