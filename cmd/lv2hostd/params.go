package main

import (
	"fmt"
	"strconv"
	"strings"
)

// paramFlag is one -set index=value control port assignment.
type paramFlag struct {
	index int
	value float32
}

// paramFlags collects repeated -set flags into an ordered list,
// implementing flag.Value.
type paramFlags []paramFlag

func (p *paramFlags) String() string {
	parts := make([]string, len(*p))
	for i, f := range *p {
		parts[i] = fmt.Sprintf("%d=%g", f.index, f.value)
	}
	return strings.Join(parts, ",")
}

func (p *paramFlags) Set(raw string) error {
	idxStr, valStr, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("lv2hostd: -set wants index=value, got %q", raw)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return fmt.Errorf("lv2hostd: -set port index %q: %w", idxStr, err)
	}
	val, err := strconv.ParseFloat(valStr, 32)
	if err != nil {
		return fmt.Errorf("lv2hostd: -set value %q: %w", valStr, err)
	}
	*p = append(*p, paramFlag{index: idx, value: float32(val)})
	return nil
}
