package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/bullsgame/internal/api/socket"
	"github.com/mcoot/bullsgame/internal/model"
)

const replyTimeout = 10 * time.Second

var errQuit = errors.New("quit")

const playHelp = `Commands:
  ready          toggle whether you are ready for the next round
  observe        toggle between playing and watching
  type <digits>  show your in-progress guess
  guess <digits> submit a four digit guess
  skip           give up one of your guesses
  reset          return to the lobby after a round
  leave          leave the room and exit
  quit           disconnect and exit`

// command is one parsed line of play input
type command struct {
	Type    string
	Payload any
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <room> <name>",
		Short: "Join a room and play",
		Long: `Join a room as a named player and play from the terminal.

Commands are read one per line from standard input:

` + playHelp,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return play(ctx, model.RoomName(args[0]), model.PlayerName(args[1]), cmd.InOrStdin(), NewOutput(cfg.Output))
		},
	}
}

func play(ctx context.Context, room model.RoomName, player model.PlayerName, in io.Reader, out *Output) error {
	conn, err := client.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// Every message is printed as it arrives; replies are also handed
	// back so each command waits for its own answer
	replies := make(chan socket.Message, 1)
	go func() {
		defer close(replies)
		for msg := range conn.Messages() {
			out.PrintSocketMessage(msg)
			if msg.Type == socket.TypeReply {
				replies <- msg
			}
		}
	}()

	r := &requester{conn: conn, replies: replies, ctx: ctx}
	if err := r.do(command{socket.TypeJoin, socket.JoinPayload{RoomName: room}}); err != nil {
		return err
	}
	if err := r.do(command{socket.TypeRegister, socket.RegisterPayload{RoomName: room, PlayerName: player}}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				out.PrintMessage(err.Error())
				continue
			}
			if cmd.Type == "" {
				continue
			}
			if err := r.do(cmd); err != nil && cfg.Verbose {
				out.PrintMessage(err.Error())
			}
			if cmd.Type == socket.TypeLeave {
				return nil
			}
		}
	}
}

// requester sends commands and waits for their replies
type requester struct {
	conn    *SocketClient
	replies <-chan socket.Message
	ctx     context.Context
}

// do sends cmd and waits for its reply. An error reply is returned as an
// error after it has been printed.
func (r *requester) do(cmd command) error {
	ref, err := r.conn.Send(cmd.Type, cmd.Payload)
	if err != nil {
		return err
	}

	timeout := time.NewTimer(replyTimeout)
	defer timeout.Stop()

	for {
		select {
		case msg, ok := <-r.replies:
			if !ok {
				if err := r.conn.Err(); err != nil {
					return fmt.Errorf("connection lost: %w", err)
				}
				return errors.New("connection closed by server")
			}
			if msg.Ref != ref {
				continue
			}
			if msg.Status != socket.StatusOK {
				return fmt.Errorf("%s failed: %s", cmd.Type, msg.Payload.Message)
			}
			return nil
		case <-timeout.C:
			return fmt.Errorf("no reply to %s", cmd.Type)
		case <-r.ctx.Done():
			return r.ctx.Err()
		}
	}
}

// parseCommand turns one line of input into a socket request. Blank lines
// parse to an empty command.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "ready", "r":
		return noArgs(socket.TypeToggleReady, args)
	case "observe", "o":
		return noArgs(socket.TypeToggleObserver, args)
	case "skip", "s":
		return noArgs(socket.TypeSkipGuess, args)
	case "reset":
		return noArgs(socket.TypeReset, args)
	case "leave":
		return noArgs(socket.TypeLeave, args)
	case "type", "t":
		value := strings.Join(args, "")
		return command{socket.TypeValidate, socket.ValuePayload{Value: value}}, nil
	case "guess", "g":
		if len(args) != 1 {
			return command{}, errors.New("usage: guess <digits>")
		}
		return command{socket.TypeGuess, socket.ValuePayload{Value: args[0]}}, nil
	case "quit", "exit", "q":
		return command{}, errQuit
	case "help", "?":
		return command{}, errors.New(playHelp)
	default:
		return command{}, fmt.Errorf("unknown command %q, try help", verb)
	}
}

func noArgs(typ string, args []string) (command, error) {
	if len(args) > 0 {
		return command{}, fmt.Errorf("%s takes no arguments", typ)
	}
	return command{Type: typ, Payload: struct{}{}}, nil
}
