package config

import (
	"flag"
)

// parseFlags defines the global flags on fs, bound to cfg, and parses args.
// Flag defaults are the values resolved so far, so unset flags change
// nothing. If sources is non-nil, it tracks the source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("taskboard", flag.ContinueOnError)
	}

	flagToSource := make(map[string]string)
	for _, b := range bindings() {
		flagToSource[b.flag] = b.key
		switch p := b.target(cfg).(type) {
		case *string:
			fs.StringVar(p, b.flag, *p, b.usage)
		case *int:
			fs.IntVar(p, b.flag, *p, b.usage)
		case *bool:
			fs.BoolVar(p, b.flag, *p, b.usage)
		}
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if fieldName, ok := flagToSource[f.Name]; ok {
				sources[fieldName] = SourceFlag
			}
		})
	}
	return nil
}
