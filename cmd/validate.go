package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/shaper/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and print the resolved config",
	Run: func(cmd *cobra.Command, args []string) {
		if configFile == "" {
			exitWithError("validate requires --config", nil)
		}
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("invalid configuration", err)
		}

		out, err := yaml.Marshal(resolvedConfig(cfg))
		if err != nil {
			exitWithError("failed to render config", err)
		}
		fmt.Println("configuration OK")
		fmt.Print(string(out))
	},
}

// resolvedConfig renders the effective settings, including values that
// only materialize at engine construction (stock rules, default shares).
func resolvedConfig(cfg *config.Config) map[string]interface{} {
	rules, _ := cfg.ShaperRules()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, fmt.Sprintf("%s -> %s", r.Name, r.Tier))
	}
	return map[string]interface{}{
		"engine":         cfg.Engine,
		"flow_timeout":   cfg.FlowTimeout,
		"evict_interval": cfg.EvictInterval,
		"rules":          names,
		"log":            cfg.Log,
		"metrics":        cfg.Metrics,
	}
}
