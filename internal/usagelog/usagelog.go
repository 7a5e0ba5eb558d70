// Package usagelog maintains the usage log: a single file holding the most
// recent capture result, read by status lines and other tools.
//
// Each write replaces the whole file. The file holds either the extracted
// report or a line starting with ErrorPrefix.
package usagelog

import (
	"strings"

	"github.com/joeycumines/usage-capture/internal/storage"
)

// ErrorPrefix starts every failure record.
const ErrorPrefix = "ERROR: "

// NotFoundMessage is recorded when the capture succeeded but no report could
// be located in it.
const NotFoundMessage = "Could not locate usage section in output"

// Writer writes records to Path. An empty Path disables writing.
type Writer struct {
	Path string
}

// Enabled reports whether records are written anywhere.
func (w Writer) Enabled() bool {
	return w.Path != ""
}

// WriteSection records an extracted report.
func (w Writer) WriteSection(text string) error {
	return w.write(text + "\n")
}

// WriteNotFound records that no report was found, followed by the cleaned
// capture so the failure can be diagnosed from the log alone.
func (w Writer) WriteNotFound(clean string) error {
	return w.write(ErrorPrefix + NotFoundMessage + "\n" + clean + "\n")
}

// WriteError records a failure message.
func (w Writer) WriteError(message string) error {
	return w.write(ErrorPrefix + strings.TrimRight(message, "\n") + "\n")
}

func (w Writer) write(record string) error {
	if !w.Enabled() {
		return nil
	}
	return storage.AtomicWriteFile(w.Path, []byte(record), 0644)
}
