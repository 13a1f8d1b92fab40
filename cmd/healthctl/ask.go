package main

import (
	"fmt"
	"strings"

	"healthagent"
	"healthagent/service"

	"github.com/spf13/cobra"
)

var (
	askUser int
	askDump bool
)

var askCmd = &cobra.Command{
	Use:   `ask "<message>"`,
	Short: "Send one chat message through the dispatcher",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askUser, "user", 0, "known user ID for the message")
	askCmd.Flags().BoolVarP(&askDump, "verbose", "v", false, "dump the request and response")
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := service.New(cmd.Context(), cfg, service.Options{})
	if err != nil {
		return err
	}
	defer svc.Close()

	req := healthagent.ChatRequest{Message: strings.Join(args, " ")}
	if cmd.Flags().Changed("user") {
		req.UserID = &askUser
	}

	resp := svc.Dispatcher.Dispatch(cmd.Context(), req)
	if askDump {
		healthagent.Dump(req, resp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s\n", resp.Agent, resp.Content)
	return nil
}
