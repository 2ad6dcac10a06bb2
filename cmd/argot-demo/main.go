// Package main is a small demonstration program for the argot library. It
// binds a file inspection CLI with subcommands, optional flags, and aliases.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/argot-go/argot"
	"github.com/argot-go/argot/internal/buildinfo"
)

type args struct {
	Print *printCmd `cmd:"print" help:"Print a range of lines from a file."`
	Count *countCmd `cmd:"count" help:"Count lines in a file." alias:"c"`
}

type printCmd struct {
	Path   string `help:"File to print."`
	Start  *uint  `help:"First line to print." alias:"s"`
	End    *uint  `help:"Last line to print." alias:"e"`
	Number bool   `help:"Prefix each line with its line number." alias:"n"`
}

type countCmd struct {
	Path string `help:"File to count."`
}

func main() {
	parsed, err := argot.FromArgs[args](
		argot.WithDescription("Inspect text files."),
		argot.WithVersion(buildinfo.String("argot-demo")),
	)
	if err != nil {
		exit(err)
	}

	switch {
	case parsed.Print != nil:
		err = runPrint(parsed.Print)
	case parsed.Count != nil:
		err = runCount(parsed.Count)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exit(err error) {
	var argotErr *argot.Error
	if !errors.As(err, &argotErr) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if argotErr.IsHelp() || argotErr.IsVersion() {
		fmt.Println(render(argotErr, os.Stdout))
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, render(argotErr, os.Stderr))
	os.Exit(2)
}

func render(err *argot.Error, out *os.File) string {
	if isatty.IsTerminal(out.Fd()) {
		return err.ColorString()
	}
	return err.Error()
}

func runPrint(cmd *printCmd) error {
	lines, err := readLines(cmd.Path)
	if err != nil {
		return err
	}
	start, end := 1, len(lines)
	if cmd.Start != nil {
		start = int(*cmd.Start)
	}
	if cmd.End != nil {
		end = int(*cmd.End)
	}
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i <= end; i++ {
		if cmd.Number {
			fmt.Printf("%6d  %s\n", i, lines[i-1])
		} else {
			fmt.Println(lines[i-1])
		}
	}
	return nil
}

func runCount(cmd *countCmd) error {
	lines, err := readLines(cmd.Path)
	if err != nil {
		return err
	}
	fmt.Println(len(lines))
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines, nil
}
