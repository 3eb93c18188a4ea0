package ticketcode

import (
	"crypto/rand"
	"fmt"
)

// Codes look like TKT-9X4KQ2M7VWRF. The alphabet drops 0/O/1/I/L to keep
// codes readable at the gate. 31^12 candidates make blind collisions rare;
// uniqueness itself is enforced by the tickets.code unique index, not here.
const (
	prefix     = "TKT-"
	alphabet   = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	codeLength = 12
)

// MaxAttempts caps the generate/insert retry loop in settlement.
const MaxAttempts = 5

// Generator produces candidate ticket codes. It is stateless and makes no
// uniqueness guarantee; callers must treat a unique-constraint violation on
// insert as the collision signal and retry.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Next returns one fixed-format candidate code.
func (g *Generator) Next() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return prefix + string(buf), nil
}
