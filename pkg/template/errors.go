package template

import "fmt"

func errDuplicateVarEnv(offset int) error {
	return fmt.Errorf("specified duplicate variable environments at %d", offset)
}

func errEmptyVarName(offset int) error {
	return fmt.Errorf("empty variable name at %d", offset)
}

func errInvalidVarSymbol(b byte) error {
	if b < 0x80 {
		return fmt.Errorf("found invalid symbol in variable name: (b`%d`; c`%c`)", b, b)
	}
	return fmt.Errorf("found invalid symbol in variable name: (b`%d`)", b)
}
