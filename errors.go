package recintern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCapacityExhausted is the cause of the panic raised when a map cannot
// assign another handle.
var ErrCapacityExhausted = errors.New("record handle space exhausted")

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

type TypeError struct {
	Type  *Type
	Tuple Tuple
	Msg   string
	Err   error
}

func typeErrf(typ *Type, tup Tuple, err error, format string, args ...any) error {
	return &TypeError{typ, tup, fmt.Sprintf(format, args...), err}
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

func (e *TypeError) Error() string {
	var buf strings.Builder
	buf.WriteString("recintern: ")
	buf.WriteString(e.Type.String())
	if e.Tuple != nil {
		buf.WriteByte(' ')
		buf.WriteString(e.Tuple.String())
	}
	writeErrMsg(&buf, e.Msg, e.Err)
	return buf.String()
}

type HandleError struct {
	Type   *Type
	Handle Value
	Len    int
	Msg    string
}

func handleErrf(typ *Type, h Value, n int, format string, args ...any) error {
	return &HandleError{typ, h, n, fmt.Sprintf(format, args...)}
}

func (e *HandleError) Error() string {
	var buf strings.Builder
	buf.WriteString("recintern: ")
	buf.WriteString(e.Type.String())
	fmt.Fprintf(&buf, "/%d (of %d)", e.Handle, e.Len)
	writeErrMsg(&buf, e.Msg, nil)
	return buf.String()
}

func writeErrMsg(buf *strings.Builder, msg string, err error) {
	if msg != "" {
		buf.WriteString(": ")
		buf.WriteString(msg)
		if err != nil {
			buf.WriteString(": ")
			buf.WriteString(err.Error())
		}
	} else if err != nil {
		buf.WriteString(": ")
		buf.WriteString(err.Error())
	}
}
