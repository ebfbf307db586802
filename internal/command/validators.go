// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/staranto/photoctl/internal/output"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	s, _ := value.(string)
	if strings.HasPrefix(s, "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	s, _ := value.(string)
	if !output.ValidFormat(s) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

// ArgCountValidator checks a command received exactly n positional args.
func ArgCountValidator(got []string, n int, usage string) error {
	if len(got) != n {
		return fmt.Errorf("expected %d argument(s), got %d: usage: %s", n, len(got), usage)
	}
	return nil
}
