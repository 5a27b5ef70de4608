package main

import (
	"fmt"
	"github.com/spf13/pflag"
	"strconv"
)

// type toggleValue is one half of a pair of boolean flags (for example --show-report and --hide-report)
// that write to the same target. Whichever of the pair is given last wins.
type toggleValue struct {
	target *bool
	on     bool
}

func (v *toggleValue) String() string {

	if v.target == nil {
		return "false"
	}

	return strconv.FormatBool(*v.target == v.on)
}

func (v *toggleValue) Set(s string) error {

	b, err := strconv.ParseBool(s)

	if err != nil {
		return err
	}

	if b {
		*v.target = v.on
	} else {
		*v.target = !v.on
	}

	return nil
}

func (v *toggleValue) Type() string {
	return "bool"
}

// addToggle registers the flags 'on' and 'off' in 'fs', both bound to 'target'.
func addToggle(fs *pflag.FlagSet, target *bool, on string, off string, default_value bool, usage string) {

	*target = default_value

	on_flag := fs.VarPF(&toggleValue{target: target, on: true}, on, "", usage)
	on_flag.NoOptDefVal = "true"

	off_flag := fs.VarPF(&toggleValue{target: target, on: false}, off, "", fmt.Sprintf("Opposite of --%s", on))
	off_flag.NoOptDefVal = "true"
}

// toggleChanged reports whether either flag of a pair was set on the command line.
func toggleChanged(fs *pflag.FlagSet, on string, off string) bool {
	return fs.Changed(on) || fs.Changed(off)
}
