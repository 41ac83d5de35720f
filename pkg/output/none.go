// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package output

import (
	"io"
)

// NoneFormatter discards the object. Commands still print their human readable messages; only the
// structured payload is suppressed.
type NoneFormatter struct {
}

func (f *NoneFormatter) Kind() Format {
	return NoneFormat
}

func (f *NoneFormatter) Format(_ interface{}, _ io.Writer, _ interface{}) error {
	return nil
}

var _ Formatter = (*NoneFormatter)(nil)
