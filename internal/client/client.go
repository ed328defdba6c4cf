// internal/client/client.go
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/protocol"
	"github.com/azuelle/coinduel/internal/transport"
)

// Client is the interactive terminal client: it owns the server connection,
// reads commands from stdin, and prints every server reply.
type Client struct {
	conn *transport.Conn
	in   *bufio.Scanner
	out  io.Writer
	log  *logrus.Logger
}

// Run connects to the server and drives the interactive session until the
// user exits or the connection dies.
func Run(addr string, port int, logger *logrus.Logger) error {
	conn, err := transport.Dial(fmt.Sprintf("%s:%d", addr, port), 0)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Infof("connection established to server at %s:%d", addr, port)

	c := &Client{
		conn: conn,
		in:   bufio.NewScanner(os.Stdin),
		out:  os.Stdout,
		log:  logger,
	}

	if err := c.authenticate(); err != nil {
		return err
	}
	c.log.Info("user successfully authenticated")

	return c.lobby()
}

// recv reads one server reply and echoes it to the user. Undecodable replies
// are skipped; a closed or failed connection is fatal.
func (c *Client) recv() (string, error) {
	msg, err := c.conn.Recv()
	if err != nil {
		if errors.Is(err, transport.ErrBadEncoding) {
			c.log.Errorf("failed to decode server message: %v", err)
			return "", nil
		}
		if errors.Is(err, transport.ErrPeerClosed) {
			return "", fmt.Errorf("server disconnected unexpectedly: %w", err)
		}
		return "", err
	}
	c.log.Debugf("received %q from server", msg)
	fmt.Fprintln(c.out, msg)
	return msg, nil
}

func (c *Client) send(msg string) error {
	c.log.Debugf("sending %q to server", msg)
	return c.conn.Send(msg)
}

// prompt prints a prompt and reads one line from the user. An exhausted
// stdin reads as an empty line.
func (c *Client) prompt(label string) string {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

// authenticate asks for credentials until the server answers 1001.
func (c *Client) authenticate() error {
	for {
		username := c.prompt("Please input your username: ")
		password := c.prompt("Please input your password: ")

		if err := c.send(fmt.Sprintf("%s %s %s", protocol.VerbLogin, username, password)); err != nil {
			return err
		}
		msg, err := c.recv()
		if err != nil {
			return err
		}
		if protocol.Code(msg) == protocol.CodeLoginOK {
			return nil
		}
	}
}

// lobby is the interactive command loop. Verb and arity errors are caught
// client-side so only well-formed commands reach the server.
func (c *Client) lobby() error {
	arity := map[string]int{
		protocol.VerbExit:  0,
		protocol.VerbList:  0,
		protocol.VerbEnter: 1,
	}

	for {
		line := c.prompt("> ")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		want, known := arity[fields[0]]
		if !known {
			fmt.Fprintln(c.out, "Invalid command. Available commands: /exit, /list, /enter <room number>")
			continue
		}
		if len(fields)-1 != want {
			fmt.Fprintln(c.out, "Invalid number of arguments.")
			continue
		}

		if err := c.send(line); err != nil {
			return err
		}

		switch fields[0] {
		case protocol.VerbExit:
			return c.awaitBye()
		case protocol.VerbList:
			if _, err := c.recv(); err != nil {
				return err
			}
		case protocol.VerbEnter:
			if err := c.enterRoom(); err != nil {
				return err
			}
		}
	}
}

// awaitBye half-closes the connection and drains replies until the server
// acknowledges the exit.
func (c *Client) awaitBye() error {
	if err := c.conn.CloseWrite(); err != nil {
		c.log.Debugf("close write: %v", err)
	}
	for {
		msg, err := c.recv()
		if err != nil {
			return err
		}
		if protocol.Code(msg) == protocol.CodeBye {
			return nil
		}
	}
}

// enterRoom handles the replies that may follow /enter: refused outright,
// parked until an opponent arrives, or straight into the round.
func (c *Client) enterRoom() error {
	msg, err := c.recv()
	if err != nil {
		return err
	}

	if protocol.Code(msg) == protocol.CodeRoomFull {
		return nil
	}
	if protocol.Code(msg) == protocol.CodeWait {
		for protocol.Code(msg) != protocol.CodeGameStarted {
			if msg, err = c.recv(); err != nil {
				return err
			}
		}
	}
	if protocol.Code(msg) == protocol.CodeGameStarted {
		return c.playRound()
	}
	return nil
}

// playRound prompts for a guess and reports the outcome. Re-prompts locally
// on anything that is not literally "true" or "false", and keeps reading
// until a result code arrives.
func (c *Client) playRound() error {
	for {
		var guess string
		for {
			guess = c.prompt("Guess true or false: ")
			if guess == "true" || guess == "false" {
				break
			}
			fmt.Fprintln(c.out, "Invalid guess. Please input 'true' or 'false'")
		}

		if err := c.send(fmt.Sprintf("%s %s", protocol.VerbGuess, guess)); err != nil {
			return err
		}

		msg, err := c.recv()
		if err != nil {
			return err
		}
		switch protocol.Code(msg) {
		case protocol.CodeWon, protocol.CodeLost, protocol.CodeTie:
			return nil
		}
	}
}
