package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the live event stream of a running daemon",
		Run:   runTail,
	}

	cmd.Flags().StringSliceP("kind", "k", nil, "Only these event kinds (new, update, delete)")

	RootCmd.AddCommand(cmd)
}

func runTail(cmd *cobra.Command, args []string) {
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	want := make(map[domain.EventKind]bool, len(kinds))
	for _, k := range kinds {
		want[domain.EventKind(strings.ToLower(strings.TrimSpace(k)))] = true
	}

	target, err := newDaemonClient().streamURL()
	if err != nil {
		exitErr("tail", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		exitErr("connect "+target, err)
	}
	defer conn.CloseNow()

	fmt.Fprintf(os.Stderr, "following %s\n", target)

	for {
		var frame domain.WireMessage
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return
			}
			exitErr("stream", err)
		}

		kind, err := domain.ParseWireName(frame.Event)
		if err != nil || (len(want) > 0 && !want[kind]) {
			continue
		}
		printFrame(kind, frame)
	}
}

func printFrame(kind domain.EventKind, frame domain.WireMessage) {
	if formatFlag == "json" {
		b, _ := json.Marshal(frame)
		fmt.Println(string(b))
		return
	}

	var a domain.Announcement
	if err := json.Unmarshal(frame.Data, &a); err != nil {
		return
	}
	fmt.Printf("%-6s %s\n", kind, formatLine(a))
}
