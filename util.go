package recintern

import (
	"log/slog"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func typeAttr(typ *Type) slog.Attr {
	return slog.String("type", typ.String())
}
