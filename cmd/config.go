package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	strategy "github.com/Aravind-Ramana/Agnirath/strategy"
)

// configCmd prints the built-in vehicle constants as a YAML document that
// `solve --config` accepts, so teams can scaffold a config file for their
// own vehicle instead of writing one from scratch.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the built-in vehicle configuration as YAML",
	Long: `Print the built-in vehicle configuration as YAML.

Redirect the output to a file, edit the values for your vehicle, and pass
the file back through 'solve --config'. A null finish_charge_fraction means
the finish floor defaults to the deep discharge cap.`,
	Run: func(cmd *cobra.Command, args []string) {
		data, err := defaultConfigYAML()
		if err != nil {
			logrus.Fatalf("Encoding default config: %v", err)
		}
		fmt.Print(string(data))
	},
}

// defaultConfigYAML renders DefaultConfig through the same yaml tags that
// LoadConfig parses, so the emitted document round-trips.
func defaultConfigYAML() ([]byte, error) {
	cfg := strategy.DefaultConfig()
	return yaml.Marshal(&cfg)
}

func init() {
	rootCmd.AddCommand(configCmd)
}
