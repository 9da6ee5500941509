package cli

import "time"

// Every flag definition carries a name, a usage line shown in the help of the
// command, and a default value used when the flag is omitted. A required flag
// has no default: the command fails before its action runs.

// StringFlag defines a flag read with Flags.String or Flags.Path.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string
}

// Flag implements cli.Flag.
func (StringFlag) Flag() {}

// StringSliceFlag defines a flag that can be repeated. The values are read in
// order with Flags.StringSlice.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    []string
}

// Flag implements cli.Flag.
func (StringSliceFlag) Flag() {}

// DurationFlag defines a flag parsed by time.ParseDuration, like "5s".
//
// - implements cli.Flag
type DurationFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    time.Duration
}

// Flag implements cli.Flag.
func (DurationFlag) Flag() {}

// IntFlag defines a flag holding a small signed number, like the capacity of a
// contest.
//
// - implements cli.Flag
type IntFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    int
}

// Flag implements cli.Flag.
func (IntFlag) Flag() {}

// Uint64Flag defines a flag holding an amount of ledger units. The full range
// of uint64 is preserved when the flag travels to the daemon.
//
// - implements cli.Flag
type Uint64Flag struct {
	Name     string
	Usage    string
	Required bool
	Value    uint64
}

// Flag implements cli.Flag.
func (Uint64Flag) Flag() {}

// BoolFlag defines a switch. It is false unless the flag is present.
//
// - implements cli.Flag
type BoolFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    bool
}

// Flag implements cli.Flag.
func (BoolFlag) Flag() {}
