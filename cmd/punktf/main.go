package main

import (
	"fmt"
	"os"
	"sort"

	punktferrors "github.com/punktf/punktf/pkg/errors"
)

func main() {
	if err := Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError prints err's message followed by its PunktfError code and, if
// any were attached, its details (source path, profile name, hook command,
// ...). A "report" detail holds a pre-rendered source-annotated template
// diagnostic and is printed as-is after the key/value details.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)

	code := punktferrors.GetErrorCode(err)
	if code == punktferrors.ErrUnknown {
		return
	}
	fmt.Fprintf(os.Stderr, "  code: %s\n", code)

	details := punktferrors.GetErrorDetails(err)
	if len(details) == 0 {
		return
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		if k == "report" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", k, details[k])
	}

	if report, ok := details["report"]; ok {
		fmt.Fprintf(os.Stderr, "\n%v", report)
	}
}
