// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/xar-plugin/internal/get"
	"github.com/pdiddy/xar-plugin/internal/secrets"
	"github.com/pdiddy/xar-plugin/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "xar-plugin/0.1"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Refresh page files of a XAR module from a running wiki",
	Long: `Get scans src/main/resources of the project for page files (*.xml), asks
the wiki to export each page as a XAR, and unpacks the page back over the
local file. The space of a page is taken from the directories between
"resources" and the file: resources/Main/Sub/Page.xml is Main.Sub.Page.

Pages the wiki does not know (404/204) are skipped. Any other failure stops
the run. Downloads go to target/xar-plugin-get, which is removed at the end.
Projects whose pom.xml packaging is not "xar" are left untouched.`,
	RunE: runGet,
}

func init() {
	f := getCmd.Flags()
	f.String("url", types.DefaultURL, "wiki action base URL")
	f.String("user", "", "user for basic authentication")
	f.String("pass", "", "password for basic authentication")
	f.String("include", "", `include pattern for page files ("regex:..." or "glob:...", default all)`)
	f.String("project-dir", ".", "project directory holding pom.xml")
	f.String("packaging", "", "treat the project as this packaging instead of reading pom.xml")
	f.Bool("recursive", false, "process every xar module below the project directory")
	f.Bool("override", true, "replace page files that are not empty")
	f.StringSlice("unpack-include", nil, "extra archive entries to extract (glob)")
	f.StringSlice("unpack-exclude", nil, "archive entries never to extract (glob)")
	f.Bool("pretty", false, "re-indent extracted XML")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.String("report", "", "write a YAML report of the run to this path")

	rootCmd.AddCommand(getCmd)
}

// bindFlags makes every flag in fs readable through v under its own name.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = v.BindPFlag(f.Name, f)
		}
	})
	return err
}

// configFromViper builds the run configuration. Credentials fall back to
// loaded secrets when neither flags, config, nor environment set them.
func configFromViper(v *viper.Viper) types.GetConfig {
	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return types.GetConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		URL:           v.GetString("url"),
		User:          secretDefault(secrets.KeyUser, v.GetString("user")),
		Pass:          secretDefault(secrets.KeyPass, v.GetString("pass")),
		Include:       v.GetString("include"),
		ProjectDir:    v.GetString("project-dir"),
		Packaging:     v.GetString("packaging"),
		Recursive:     v.GetBool("recursive"),
		Override:      v.GetBool("override"),
		UnpackInclude: v.GetStringSlice("unpack-include"),
		UnpackExclude: v.GetStringSlice("unpack-exclude"),
		Pretty:        v.GetBool("pretty"),
		ReportPath:    v.GetString("report"),
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg := configFromViper(v)

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	runner, err := get.New(client, cfg, os.Stdout, newLogger(cmd))
	if err != nil {
		return err
	}

	result, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("get failed after %d file(s): %w", result.Total(), err)
	}
	return nil
}
