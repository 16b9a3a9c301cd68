// Package util holds small argument parsing helpers shared by commands.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSlot parses a slot argument. An empty argument or "latest" asks for
// the current slot and returns latest true. Slots may be decimal or 0x
// prefixed hexadecimal.
func ParseSlot(arg string) (slot uint64, latest bool, err error) {
	arg = strings.TrimSpace(strings.ToLower(arg))
	if arg == "" || arg == "latest" {
		return 0, true, nil
	}

	base := 10
	if hex, ok := strings.CutPrefix(arg, "0x"); ok {
		arg, base = hex, 16
	}
	slot, err = strconv.ParseUint(strings.ReplaceAll(arg, "_", ""), base, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid slot %q", arg)
	}
	return slot, false, nil
}
