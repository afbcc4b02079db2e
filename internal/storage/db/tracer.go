package db

import (
	"github.com/exaring/otelpgx"
)

func newTracer() *otelpgx.Tracer {
	return otelpgx.NewTracer(
		otelpgx.WithTrimSQLInSpanName(),
	)
}
