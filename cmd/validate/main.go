package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jwebster45206/manor-engine/pkg/catalog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run validates each catalog file named in args, or every embedded catalog
// when args is empty. It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	type target struct {
		name string
		load func() (*catalog.Catalog, error)
	}

	var targets []target
	if len(args) == 0 {
		names, err := catalog.ListEmbedded()
		if err != nil {
			fmt.Fprintf(stderr, "Failed to list embedded catalogs: %v\n", err)
			return 1
		}
		for _, name := range names {
			targets = append(targets, target{
				name: "embedded:" + name,
				load: func() (*catalog.Catalog, error) { return catalog.LoadEmbedded(name) },
			})
		}
	}
	for _, path := range args {
		targets = append(targets, target{
			name: path,
			load: func() (*catalog.Catalog, error) { return catalog.LoadFile(path) },
		})
	}

	failed := 0
	for _, t := range targets {
		fmt.Fprintf(stdout, "Validating %s...\n", t.name)

		c, err := t.load()
		if err != nil {
			fmt.Fprintf(stderr, "  failed to load: %v\n", err)
			failed++
			continue
		}

		if err := c.Validate(); err != nil {
			var verr *catalog.ValidationError
			if errors.As(err, &verr) {
				for _, p := range verr.Problems {
					fmt.Fprintf(stderr, "  - %s\n", p)
				}
			} else {
				fmt.Fprintf(stderr, "  %v\n", err)
			}
			failed++
			continue
		}

		fmt.Fprintf(stdout, "  %s is valid (%d scenes, %d items, %d puzzles)\n",
			c.Name(), len(c.Scenes()), len(c.Items()), len(c.Puzzles()))
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "Validation failed for %d of %d catalog(s)\n", failed, len(targets))
		return 1
	}
	return 0
}
