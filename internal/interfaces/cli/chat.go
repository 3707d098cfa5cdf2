package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/client"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

const previewLength = 60

// NewChatCmd groups the chat API commands.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Create chats, send messages and read transcripts through the API server",
	}
	cmd.AddCommand(
		newChatNewCmd(),
		newChatListCmd(),
		newChatSendCmd(),
		newChatHistoryCmd(),
		newChatSummaryCmd(),
		newChatResetCmd(),
	)
	return cmd
}

func newChatNewCmd() *cobra.Command {
	var username, title string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				resp, err := cc.Create(ctx, &client.CreateChatRequest{Username: username, Title: title})
				if err != nil {
					return err
				}
				return PrintResult(cmd, createdChat(*resp))
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "owner of the chat (required)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "chat title")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newChatListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list USERNAME",
		Short: "List a user's chats, most recently active first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				chats, err := cc.List(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, chatList(chats))
			})
		},
	}
}

func newChatSendCmd() *cobra.Command {
	var ml bool
	cmd := &cobra.Command{
		Use:   "send CHAT_ID MESSAGE...",
		Short: "Send a message and print the assistant's reply",
		Long: "Send a message to a chat. Prefix the message with @admet_prediction or\n" +
			"@binding_affinity to run a prediction.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				resp, err := cc.Send(ctx, &client.SendMessageRequest{
					ChatID:      args[0],
					Message:     strings.Join(args[1:], " "),
					MLActivated: ml,
				})
				if err != nil {
					return err
				}
				return PrintResult(cmd, reply(*resp))
			})
		},
	}
	cmd.Flags().BoolVar(&ml, "ml", false, "mark the message as a model request")
	return cmd
}

func newChatHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history CHAT_ID",
		Short: "Print the stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				msgs, err := cc.Messages(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, transcript(msgs))
			})
		},
	}
}

func newChatSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary CHAT_ID",
		Short: "Generate an article from the chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				s, err := cc.Summary(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, article(*s))
			})
		},
	}
}

func newChatResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset CHAT_ID",
		Short: "Discard the chat's in-memory session; stored messages are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChats(cmd, func(cc *client.ChatsClient, cliCtx *CLIContext) error {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				resp, err := cc.Reset(ctx, args[0])
				if err != nil {
					return err
				}
				if strings.EqualFold(cliCtx.OutputFormat, "json") {
					return PrintResult(cmd, resp)
				}
				PrintSuccess(cmd, resp.Message)
				return nil
			})
		},
	}
}

func withChats(cmd *cobra.Command, fn func(*client.ChatsClient, *CLIContext) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Client == nil {
		return errors.Unavailable("API client is not configured; check --server")
	}
	return fn(cliCtx.Client.Chats(), cliCtx)
}

type createdChat client.CreateChatResponse

func (c createdChat) String() string {
	return fmt.Sprintf("Created chat %s (%q) at %s", c.ChatID, c.Title, c.CreatedAt.Local().Format(time.RFC3339))
}

type chatList []client.Chat

func (l chatList) TableHeaders() []string {
	return []string{"CHAT ID", "TITLE", "CREATED", "LAST MESSAGE"}
}

func (l chatList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		last := ""
		if c.LastMessagePreview != nil {
			last = truncate(*c.LastMessagePreview, previewLength)
		}
		rows = append(rows, []string{c.ChatID, c.Title, c.CreatedAt.Local().Format(time.RFC3339), last})
	}
	return rows
}

func (l chatList) String() string {
	if len(l) == 0 {
		return "No chats."
	}
	var b strings.Builder
	for _, c := range l {
		fmt.Fprintf(&b, "%s  %s\n", c.ChatID, c.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

type reply client.SendMessageResponse

func (r reply) String() string {
	var b strings.Builder
	b.WriteString(r.Response)
	if len(r.Parameters) > 0 {
		b.WriteString("\n\nParameters:")
		keys := make([]string, 0, len(r.Parameters))
		for k := range r.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s = %v", k, formatParam(r.Parameters[k]))
		}
	}
	return b.String()
}

func formatParam(v interface{}) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprint(v)
}

type transcript []client.Message

func (t transcript) TableHeaders() []string {
	return []string{"TIME", "ROLE", "CONTENT"}
}

func (t transcript) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{m.Timestamp.Local().Format(time.RFC3339), m.Role, truncate(m.Content, previewLength)})
	}
	return rows
}

func (t transcript) String() string {
	if len(t) == 0 {
		return "No messages."
	}
	var b strings.Builder
	for i, m := range t {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s:\n%s", m.Timestamp.Local().Format(time.RFC3339), m.Role, m.Content)
	}
	return b.String()
}

type article client.Summary

func (a article) String() string {
	return a.Title + "\n\n" + a.Content
}

//Personal.AI order the ending
