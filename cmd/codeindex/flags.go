package main

import (
	"flag"
	"fmt"
)

// stringList accumulates repeated occurrences of a flag, e.g.
// -exclude "vendor/**" -exclude "**/*.gen.go".
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprint([]string(*s))
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func stringSliceFlag(fs *flag.FlagSet, name, usage string) *stringList {
	var s stringList
	fs.Var(&s, name, usage)
	return &s
}
