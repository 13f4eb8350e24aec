package tonaddr

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Address is an account address in raw form: a signed workchain id and a
// 256-bit account id, rendered as "<workchain>:<hex64>". The zero value is
// not a valid address and is used to mean "unset".
type Address struct {
	Workchain int32
	Hash      [32]byte
}

// Parse decodes an address from its raw string form.
func Parse(s string) (Address, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("invalid address %q: missing workchain separator", s)
	}

	wc, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: bad workchain: %s", s, err)
	}

	raw, err := hex.DecodeString(strings.ToLower(parts[1]))
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: bad account id: %s", s, err)
	}
	if len(raw) != 32 {
		return Address{}, fmt.Errorf("invalid address %q: account id must be 32 bytes", s)
	}

	addr := Address{Workchain: int32(wc)}
	copy(addr.Hash[:], raw)
	return addr, nil
}

// MustParse is like Parse but panics on malformed input. Meant for constants
// and tests.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%s", a.Workchain, hex.EncodeToString(a.Hash[:]))
}

// IsZero returns whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler so that addresses serialize
// to their raw string form, including when used as JSON map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
