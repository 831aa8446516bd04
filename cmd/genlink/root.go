package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/arthur-debert/genlink/internal/version"
	"github.com/arthur-debert/genlink/pkg/cobrax/topics"
	"github.com/arthur-debert/genlink/pkg/commands"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/output"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed docs
var docsFS embed.FS

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		dryRun     bool
		force      bool
		deployRoot string
		manifest   string
		format     string
	)

	rootCmd := &cobra.Command{
		Use:     "genlink",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, MsgFlagForce)
	rootCmd.PersistentFlags().StringVar(&deployRoot, "root", ".", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&manifest, "manifest", "", MsgFlagManifest)
	rootCmd.PersistentFlags().StringVar(&format, "format", "auto", MsgFlagFormat)

	resolveFormat := func() (output.Format, error) {
		f, err := output.ParseFormat(format)
		if err != nil {
			return f, err
		}
		if f == output.FormatAuto {
			f = output.DetectFormat(os.Stdout)
		}
		return f, nil
	}

	switchCmd := &cobra.Command{
		Use:   "switch",
		Short: MsgSwitchShort,
		Long: `Switch reads the manifest, builds a new generation image and
transitions the live tree to it: collision pre-check, cleanup of
removed entries, atomic marker repoint, linking, then on-change hooks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := commands.Switch(commands.SwitchOptions{
				DeployRoot:   deployRoot,
				ManifestPath: manifest,
				DryRun:       dryRun,
				Force:        force,
			})
			if rep != nil {
				f, ferr := resolveFormat()
				if ferr != nil {
					return ferr
				}
				rendered, rerr := output.RenderReport(rep, f)
				if rerr != nil {
					return rerr
				}
				cmd.Print(rendered)
			}
			if err != nil {
				label := "collision"
				if errors.IsErrorCode(err, errors.ErrBackupExists) {
					label = "backup-exists"
				}
				if paths, ok := errors.GetErrorDetails(err)["paths"].([]string); ok {
					for _, p := range paths {
						cmd.PrintErrf("%s\t%s\n", label, p)
					}
				}
			}
			return err
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: MsgBuildShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.Build(commands.BuildOptions{
				DeployRoot:   deployRoot,
				ManifestPath: manifest,
			})
			if err != nil {
				return err
			}
			cmd.Printf("built generation %d (%d entries)\n",
				result.Generation.Number, len(result.Generation.Entries))
			for _, c := range result.Conflicts {
				cmd.Printf("skipped\t%s\t%s\n", c.Target, c.Reason)
			}
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: MsgCheckShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.Check(commands.CheckOptions{
				DeployRoot:   deployRoot,
				ManifestPath: manifest,
				Force:        force,
			})
			if result != nil {
				for _, p := range result.Collisions {
					cmd.Printf("collision\t%s\n", p)
				}
				for _, p := range result.BackupClobbers {
					cmd.Printf("backup-exists\t%s\n", p)
				}
				for _, p := range result.WouldBackup {
					cmd.Printf("would-backup\t%s\n", p)
				}
				for _, p := range result.Unchanged {
					cmd.Printf("unchanged\t%s\n", p)
				}
			}
			if err == nil {
				cmd.Println("ok")
			}
			return err
		},
	}

	gensCmd := &cobra.Command{
		Use:   "generations",
		Short: MsgGensShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := commands.Generations(commands.GenerationsOptions{
				DeployRoot: deployRoot,
			})
			if err != nil {
				return err
			}
			for _, info := range infos {
				marker := " "
				if info.Current {
					marker = "*"
				}
				cmd.Printf("%s %6d\t%s\n", marker, info.Number, info.ImageRoot)
			}
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("genlink version %s\n", version.Version)
			cmd.Printf("  commit: %s\n", version.Commit)
			cmd.Printf("  built:  %s\n", version.Date)
		},
	}

	completionCmd := &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion script",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	rootCmd.AddCommand(switchCmd, buildCmd, checkCmd, gensCmd, versionCmd, completionCmd)

	if tm, err := topics.New(docsFS, "docs", &topics.GlamourRenderer{Width: 80}); err == nil {
		rootCmd.AddCommand(tm.Command())
	}

	return rootCmd
}
