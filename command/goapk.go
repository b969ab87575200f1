package command

import (
	"context"
	"runtime"

	"github.com/frantjc/goapk"
	"github.com/spf13/cobra"
)

// NewGoapk returns the root command for goapk which acts as its
// CLI entrypoint.
func NewGoapk() *cobra.Command {
	var (
		o         = &opts{}
		verbosity int
		cmd       = &cobra.Command{
			Use:           "goapk",
			Version:       goapk.SemVer(),
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRun: func(cmd *cobra.Command, _ []string) {
				cmd.SetContext(
					goapk.WithLogger(
						cmd.Context(), goapk.NewLogger(verbosity),
					),
				)
			},
		}
	)

	cmd.SetVersionTemplate("{{ .Name }}{{ .Version }} " + runtime.Version() + "\n")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "V", "verbosity for goapk")
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "configuration document for goapk")
	cmd.PersistentFlags().StringVar(&o.profile, "profile", "dev", "signing profile")
	cmd.PersistentFlags().StringVarP(&o.serial, "device-serial", "s", "", "serial of the device to operate on")
	cmd.PersistentFlags().StringVar(&o.debugKeystore, "debug-keystore", "", "debug keystore location for the dev profile")

	cmd.AddCommand(newBuild(o), newRun(o), newDebug(o))

	return cmd
}

func newBuild(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:           "build",
		Short:         "Compile every build target and produce the signed package",
		Version:       goapk.SemVer(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := newPipeline(ctx, o)
			if err != nil {
				return withExitCode(err)
			}

			_, _, err = p.build(ctx)
			return withExitCode(err)
		},
	}
}

func newRun(o *opts) *cobra.Command {
	var (
		noLogcat bool
		cmd      = &cobra.Command{
			Use:           "run",
			Short:         "Build, install, and launch the package on a device",
			Version:       goapk.SemVer(),
			SilenceErrors: true,
			SilenceUsage:  true,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()

				p, err := newPipeline(ctx, o)
				if err != nil {
					return withExitCode(err)
				}

				_, out, err := p.build(ctx)
				if err != nil {
					return withExitCode(err)
				}

				controller := p.controller()

				if err := controller.Install(ctx, out); err != nil {
					return withExitCode(err)
				}

				if noLogcat {
					return withExitCode(controller.Run(ctx, nil))
				}

				return withExitCode(controller.Run(ctx, func(ctx context.Context) error {
					return tailLogcat(ctx, p.bridge.ADB, o.serial, p.cfg.Package)
				}))
			},
		}
	)

	cmd.Flags().BoolVar(&noLogcat, "no-logcat", false, "do not tail the app's log after launch")

	return cmd
}

func newDebug(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:           "debug",
		Short:         "Build, install, and debug the package on a device",
		Version:       goapk.SemVer(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := newPipeline(ctx, o)
			if err != nil {
				return withExitCode(err)
			}

			artifacts, out, err := p.build(ctx)
			if err != nil {
				return withExitCode(err)
			}

			controller := p.controller()

			if err := controller.Install(ctx, out); err != nil {
				return withExitCode(err)
			}

			return withExitCode(controller.Debug(ctx, artifacts))
		},
	}
}
