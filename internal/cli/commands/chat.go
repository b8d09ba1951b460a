package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/chat"
)

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the SQL assistant",
		Long: `Chat with the assistant about your data.

With a message argument the command sends one message and prints the
reply. Without arguments it opens an interactive conversation.`,
		Example: `  # One-shot
  sqlpilot chat "what tables do I have?"

  # Interactive conversation
  sqlpilot chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := cmdCtx.RequireSession(); err != nil {
				return err
			}

			orch := chat.New(cmdCtx.Client, cmdCtx.Logger)

			if len(args) > 0 {
				ctx, cancel := cmdCtx.RequestContext(cmd.Context())
				defer cancel()

				appended := orch.Send(ctx, strings.Join(args, " "))
				if len(appended) == 0 {
					return fmt.Errorf("empty message")
				}
				// Print the reply only; the question came from argv
				cmdCtx.Renderer.Println(appended[len(appended)-1].Text)
				return nil
			}

			return runChatInteractive(cmd, cmdCtx, orch)
		},
	}

	return cmd
}

func runChatInteractive(cmd *cobra.Command, cmdCtx *CommandContext, orch *chat.Orchestrator) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Show the greeting the conversation opens with
	cmdCtx.Renderer.RenderTranscript(orch.Messages())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		ctx, cancel := cmdCtx.RequestContext(cmd.Context())
		appended := orch.Send(ctx, line)
		cancel()

		if len(appended) == 0 {
			continue
		}
		// The user's line is already on screen; print the reply
		cmdCtx.Renderer.RenderTranscript(appended[1:])
	}

	return nil
}
