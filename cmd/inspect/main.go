// Storage inspection tool: dumps keys (and optionally values) from a
// luminachat storage directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"luminachat/pkg/store"
)

func main() {
	var (
		path   string
		prefix string
		values bool
	)
	flag.StringVar(&path, "db", "", "storage directory to inspect")
	flag.StringVar(&prefix, "prefix", "", "only keys with this prefix")
	flag.BoolVar(&values, "values", false, "print values as well")
	flag.Parse()
	if path == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}

	db, err := store.OpenPebble(path, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	keys, err := db.ListKeys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !values {
			fmt.Println(k)
			continue
		}
		v, err := db.Get(k)
		if err != nil {
			fmt.Printf("%s\t<error: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
}
