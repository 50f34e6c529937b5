package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printResult writes v as indented JSON, or line as plain text.
func printResult(w io.Writer, format string, v interface{}, line string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
