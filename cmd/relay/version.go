package main

import (
	"fmt"
	"runtime"

	"github.com/scott-cotton/cli"

	"github.com/wtask/relay/pkg/semver"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "0.1.0-dev"
	commit  = ""
)

// Version - returns validated application version.
func Version() (semver.V, error) {
	v, err := semver.Parse(version)
	if err != nil {
		return semver.V{}, err
	}
	if commit != "" {
		v = v.WithBuild(commit)
	}
	return v, nil
}

type VersionConfig struct {
	*MainConfig
	Version *cli.Command
}

func VersionCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &VersionConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Version, "version").
		WithSynopsis("version").
		WithDescription("print relay version").
		WithRun(func(cc *cli.Context, args []string) error {
			if _, err := cfg.Version.Parse(cc, args); err != nil {
				return err
			}
			v, err := Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cc.Out, "relay %s (%s %s/%s)\n", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		})
}
