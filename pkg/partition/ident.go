package partition

import (
	"fmt"
	"strconv"
)

// Ident is a zero-padded item identifier. It carries both the numeric index
// and the fixed padding width so that formatting cannot drift from the batch
// size it was derived from.
type Ident struct {
	N     int
	Width int
}

// NewIdent returns the identifier for item n padded to width digits.
func NewIdent(n, width int) Ident {
	return Ident{N: n, Width: width}
}

// String formats the identifier with leading zeros, e.g. {7, 3} -> "007".
func (id Ident) String() string {
	return fmt.Sprintf("%0*d", id.Width, id.N)
}

// Width returns the number of decimal digits needed to print count. It is
// computed once per batch and shared by every identifier in it.
func Width(count int) int {
	if count < 1 {
		return 1
	}
	return len(strconv.Itoa(count))
}
