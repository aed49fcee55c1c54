// Package extract locates the raw message records inside one decoded
// archive tree.
package extract

import (
	"errors"

	"github.com/retrochat/ichat-recover/tree"
)

// ErrUnexpectedStructure reports a decoded archive whose shape does not
// match the known record layout. Callers skip the file and continue.
var ErrUnexpectedStructure = errors.New("archive structure not as expected")

// Messages returns the raw message records of one archive. The archive
// format nests the record list at a fixed position: the root sequence's
// second element is itself a sequence whose third element is the list.
func Messages(root tree.Value) ([]tree.Value, error) {
	records := root.At(1).At(2)
	if records.Kind() != tree.Seq {
		return nil, ErrUnexpectedStructure
	}
	return records.Items(), nil
}
