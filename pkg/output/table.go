// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableFormatterOptions carries the column headings for table output.
type TableFormatterOptions struct {
	Columns []string
}

// TableFormatter writes rows with tab alignment. The object to format must be a [][]string of
// rows; opts must be a TableFormatterOptions naming the columns.
type TableFormatter struct {
}

func (f *TableFormatter) Kind() Format {
	return TableFormat
}

func (f *TableFormatter) Format(obj interface{}, writer io.Writer, opts interface{}) error {
	rows, ok := obj.([][]string)
	if !ok {
		return fmt.Errorf("table output requires rows of strings, got %T", obj)
	}

	options, ok := opts.(TableFormatterOptions)
	if !ok || len(options.Columns) == 0 {
		return fmt.Errorf("table output requires TableFormatterOptions with at least one column")
	}

	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(options.Columns, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

var _ Formatter = (*TableFormatter)(nil)
