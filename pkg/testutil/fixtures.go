package testutil

import (
	"io"
	"log/slog"
	"strings"
)

// TransactionsHeader is the canonical header of a transactions upload.
const TransactionsHeader = "amount,time,v1,v2,v3"

// CSV joins a header and rows into CSV text with a trailing newline.
func CSV(header string, rows ...string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}

// TransactionsCSV builds an upload with the canonical header.
func TransactionsCSV(rows ...string) string {
	return CSV(TransactionsHeader, rows...)
}

// DiscardLogger returns a logger that drops everything below error and
// writes nothing.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
