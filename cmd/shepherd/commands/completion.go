package commands

import "github.com/spf13/cobra"

// Completion returns the completion command for shell autocompletion.
func Completion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for shepherd.

To load completions:

Bash:
  $ source <(shepherd completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ shepherd completion bash > /etc/bash_completion.d/shepherd
  # macOS:
  $ shepherd completion bash > $(brew --prefix)/etc/bash_completion.d/shepherd

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ shepherd completion zsh > "${fpath[1]}/_shepherd"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ shepherd completion fish | source
  # To load completions for each session, execute once:
  $ shepherd completion fish > ~/.config/fish/completions/shepherd.fish

PowerShell:
  PS> shepherd completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> shepherd completion powershell > shepherd.ps1
  # and source this file from your PowerShell profile.
`,
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
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}
