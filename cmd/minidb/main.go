// Command minidb is the interactive front-end: a REPL that reads one
// SQL statement per line, executes it against a Storage opened from
// the given directory, and prints the result.
//
// Grounded directly on DaemonDB's own top-level main.go: a
// bufio.Scanner loop, a "db> " prompt, `exit` as the sentinel that
// breaks the loop, Ctrl+D (scanner.Scan returning false) also ending
// the session cleanly. Unlike the teacher, which dumps the raw AST and
// bytecode for every statement, this one just runs the statement and
// prints its result or error — there's no bytecode stage to show.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"minidb/pkg/sql/exec"
	"minidb/pkg/storage"
)

func main() {
	dir := flag.String("dir", "minidb_data", "storage directory")
	flag.Parse()

	store, err := storage.Open(storage.Options{Dir: *dir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "minidb: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	executor := exec.New(store)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("db> ")

		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" {
			continue
		}

		result, err := executor.Run(line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Print(exec.FormatRows(result))
	}

	if err := store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "minidb: close: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
