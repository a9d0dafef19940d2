// Package helpers holds output formatting and flag helpers shared by the
// geoinspect commands.
package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// OutputFormat is the desired output format.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
	FormatWKT   OutputFormat = "wkt"
	FormatJSON  OutputFormat = "json"
)

// AddFormatFlag adds a --format/-o flag accepting the supported formats.
func AddFormatFlag(cmd *cobra.Command, format *string, def OutputFormat, supported []OutputFormat) {
	names := formatNames(supported)
	cmd.Flags().StringVarP(format, "format", "o", string(def),
		fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat checks that format is one of supported.
func ValidateFormat(format string, supported []OutputFormat) (OutputFormat, error) {
	for _, s := range supported {
		if format == string(s) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(formatNames(supported), ", "))
}

func formatNames(formats []OutputFormat) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

// WriteJSON writes data as indented JSON.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteTable writes a slice of structs as aligned columns. Only fields with
// a `header` tag are written.
func WriteTable(w io.Writer, rows any) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("table rows must be a slice, got %s", v.Kind())
	}
	if v.Len() == 0 {
		return nil
	}

	t := v.Type().Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var columns []int
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		if h := t.Field(i).Tag.Get("header"); h != "" {
			columns = append(columns, i)
			headers = append(headers, h)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	cells := make([]string, len(columns))
	for r := 0; r < v.Len(); r++ {
		row := reflect.Indirect(v.Index(r))
		for c, i := range columns {
			cells[c] = fmt.Sprint(row.Field(i).Interface())
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
