// Package flagx holds helpers for sharing os.Args between several
// independent flag parsers (config overlay, component flags, cobra).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// configFlags are the spellings accepted for the JSON config path.
var configFlags = []string{"-c", "-config", "--config"}

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Two forms are recognized: "-f value" and "-f=value". A value is only
// consumed when the next token does not start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags returns the config file path given with -c, -config or
// --config, or "" when none is present. Other arguments are ignored so the
// caller's own flag parsing is not disturbed.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], configFlags)

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
