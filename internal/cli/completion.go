package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and install the completion
// script for one shell. installDir is relative to the home directory; an
// empty installDir means the shell has no automatic install.
type shellCompletion struct {
	generate   func(w io.Writer) error
	loadHint   string
	installDir []string
	fileName   string
	afterHint  func(dir string) []string
}

var shellCompletions = map[string]shellCompletion{
	"bash": {
		generate:   func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		loadHint:   `eval "$(td completion bash)"`,
		installDir: []string{".local", "share", "bash-completion", "completions"},
		fileName:   "td",
		afterHint: func(dir string) []string {
			return []string{"Restart your shell or run: source " + filepath.Join(dir, "td")}
		},
	},
	"zsh": {
		generate:   func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		loadHint:   `eval "$(td completion zsh)"`,
		installDir: []string{".local", "share", "zsh", "site-functions"},
		fileName:   "_td",
		afterHint: func(dir string) []string {
			return []string{
				"Ensure this directory is in your fpath. Add to ~/.zshrc if needed:",
				fmt.Sprintf("  fpath=(%s $fpath)", dir),
				"  autoload -Uz compinit && compinit",
			}
		},
	},
	"fish": {
		generate:   func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		loadHint:   "td completion fish | source",
		installDir: []string{".config", "fish", "completions"},
		fileName:   "td.fish",
		afterHint: func(string) []string {
			return []string{"Completions will be available in new fish sessions automatically."}
		},
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		loadHint: "td completion powershell | Out-String | Invoke-Expression",
	},
}

func supportedShells() []string {
	names := make([]string, 0, len(shellCompletions))
	for name := range shellCompletions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for td",
	Long: `Set up shell tab-completions for td commands, flags and task ids.

Supported shells: bash, fish, powershell, zsh

Quick install (writes the script under your home directory):

  td completion bash --install
  td completion zsh --install
  td completion fish --install

Or print the completion script to stdout:

  td completion bash`,
	ValidArgs: supportedShells(),
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your home directory")

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := shellCompletions[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: %v)", args[0], supportedShells())
	}

	if completionInstall {
		return installCompletion(cmd, args[0], shell)
	}

	// Hints go to stderr so eval "$(td completion bash)" only sees the script.
	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(errOut, "# To load completions in your current session:")
	_, _ = fmt.Fprintln(errOut, "#   "+shell.loadHint)
	if len(shell.installDir) > 0 {
		_, _ = fmt.Fprintf(errOut, "# To install permanently:\n#   td completion %s --install\n", args[0])
	}
	return shell.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, shell shellCompletion) error {
	if len(shell.installDir) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; run 'td completion %s' and add the output to your profile", name, name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	dir := filepath.Join(append([]string{home}, shell.installDir...)...)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	target := filepath.Join(dir, shell.fileName)

	if err := writeCompletionFile(target, shell.generate); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	for _, line := range shell.afterHint(dir) {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

// writeCompletionFile creates target and writes the script into it,
// propagating close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := generate(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
