// Command thirdparty-tool picks the prebuilt third-party dependency archive for a build
// and maintains the catalog of published archives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := newRootCommand(a).ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errNoAction) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
