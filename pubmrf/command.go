/*
	This file holds types and functions supporting command-related activity
	in PUB-MRF.  Commands bundle an operation name with its arguments and
	any optional "key=value" settings given on the command line.
*/

package pubmrf

import (
	"strings"
)

// Keys for setting various arguments within the command line via "key=value" strings.
const (
	KeyConfigFile = "config"
	KeyOutput     = "output"
	KeyTemplate   = "template"
)

var setKeys = map[string]bool{
	"config":   true,
	"output":   true,
	"template": true,
}

// Command packages a command line for the switchboard in the pubmrf tool.
// The first item in the string slice is the command, e.g., "fuse" or
// "tally".  The other items are command arguments or optional settings of
// the form "<key>=<value>".
type Command []string

// String returns a space-separated command line
func (cmd Command) String() string {
	return strings.Join([]string(cmd), " ")
}

// Name returns the first argument which is assumed to be the name of the command.
func (cmd Command) Name() string {
	if len(cmd) == 0 {
		return ""
	}
	return cmd[0]
}

// Argument returns the nth argument, skipping over any settings of the
// form "<key>=<value>".  Argument(0) is the command name itself.  Missing
// arguments return the empty string.
func (cmd Command) Argument(n int) string {
	if n == 0 {
		return cmd.Name()
	}
	if len(cmd) < 2 {
		return ""
	}
	pos := 0
	for _, arg := range cmd[1:] {
		elems := strings.Split(arg, "=")
		if len(elems) == 2 && setKeys[elems[0]] {
			continue
		}
		pos++
		if pos == n {
			return arg
		}
	}
	return ""
}

// Parameter scans a command for any "key=value" argument and returns
// the value of the passed 'key'.
func (cmd Command) Parameter(key string) (value string, found bool) {
	if len(cmd) > 1 {
		for _, arg := range cmd[1:] {
			elems := strings.Split(arg, "=")
			if len(elems) == 2 && elems[0] == key {
				value = elems[1]
				found = true
				return
			}
		}
	}
	return
}

// CommandArgs sets a variadic argument set of string pointers to
// command arguments, ignoring setting arguments of the form
// "<key>=<value>".  If there aren't enough arguments to set a target,
// the target is set to the empty string.  It returns an 'overflow' slice
// that has all arguments beyond those needed for targets.
func (cmd Command) CommandArgs(targets ...*string) (overflow []string) {
	overflow = make([]string, 0, len(cmd))
	for _, target := range targets {
		*target = ""
	}
	if len(cmd) > 1 {
		numTargets := len(targets)
		curTarget := 0
		for _, arg := range cmd[1:] {
			elems := strings.Split(arg, "=")
			if len(elems) == 2 && setKeys[elems[0]] {
				continue
			}
			if curTarget >= numTargets {
				overflow = append(overflow, arg)
			} else {
				*(targets[curTarget]) = arg
			}
			curTarget++
		}
	}
	return
}
