// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"encoding/json"
	"io"
)

// JsonFormatter renders values as indented JSON, suitable for piping a
// resolved template or deployment request into jq or another tool.
type JsonFormatter struct {
}

func (f *JsonFormatter) Kind() Format {
	return JsonFormat
}

// Format ignores formatter options; JSON output has no columns to shape.
func (f *JsonFormatter) Format(obj interface{}, writer io.Writer, _ interface{}) error {
	encoded, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}

	_, err = writer.Write(append(encoded, '\n'))
	return err
}

var _ Formatter = (*JsonFormatter)(nil)
