// Command tablelint runs the W315/W325 table-field checker over one or
// more line-scope bundles and prints warnings to stdout, the way the
// teacher's inspector/coder example prints results via fmt rather than
// a logging library.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/viant/tablelint/analyzer"
	"github.com/viant/tablelint/internal/fixture"
)

func main() {
	dialect := flag.String("dialect", "", "Lua dialect version gate for built-in models (default from analyzer)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: tablelint [-dialect v5.4.0] <bundle.yaml> [bundle2.yaml ...]")
		os.Exit(2)
	}

	var opts []analyzer.Option
	if *dialect != "" {
		opts = append(opts, analyzer.WithDialect(*dialect))
	}
	a, err := analyzer.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tablelint:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	loader := fixture.NewLoader()

	exit := 0
	for _, url := range flag.Args() {
		scopes, err := loader.Load(ctx, url)
		if err != nil {
			fmt.Fprintln(os.Stderr, "tablelint:", err)
			exit = 1
			continue
		}
		for _, ls := range scopes {
			for _, w := range a.AnalyzeFunction(ls) {
				fmt.Printf("%s:%d:%d: W%s: %s\n", url, w.Range.Line, w.Range.Column, w.Code, w.Message())
				exit = 1
			}
		}
	}
	os.Exit(exit)
}
