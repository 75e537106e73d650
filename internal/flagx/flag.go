// Package flagx lets each config layer parse only the command-line flags it
// owns, so the server and the client can share os.Args with other flag sets.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvVar names the JSON config file when no -c/-config flag is given.
const ConfigEnvVar = "SITECREW_CONFIG"

// flagName strips one or two leading dashes and any "=value" suffix.
func flagName(arg string) string {
	name, _, _ := strings.Cut(arg, "=")
	return strings.TrimPrefix(strings.TrimPrefix(name, "-"), "-")
}

// FilterArgs keeps the allowed flags of args together with their values, in
// order. "-x" and "--x" are the same flag.
//
// A value may be attached ("-c=conf.json") or follow as the next argument
// ("-c conf.json"). Flags listed in boolFlags never consume the next
// argument, so "-offline positional" keeps "positional" out of the result.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[flagName(f)] = false
	}
	for _, f := range boolFlags {
		allowed[flagName(f)] = true
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		isBool, ok := allowed[flagName(arg)]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)

		if strings.Contains(arg, "=") || isBool {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the value of the last -c/-config flag in args, falling
// back to the ConfigEnvVar variable from lookupEnv.
func ConfigPath(args []string, lookupEnv func(string) (string, bool)) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	if config == "" && lookupEnv != nil {
		if v, ok := lookupEnv(ConfigEnvVar); ok {
			config = strings.TrimSpace(v)
		}
	}
	return config
}

// JsonConfigFlags is ConfigPath over the process arguments and environment.
func JsonConfigFlags() string {
	return ConfigPath(os.Args[1:], os.LookupEnv)
}
