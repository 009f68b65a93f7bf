package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/germanamz/kata/pkg/agent"
)

// AskCmd sends a single prompt.
type AskCmd struct {
	Agent  string `arg:"" help:"Agent to ask."`
	Prompt string `arg:"" help:"Prompt text."`
}

func (c *AskCmd) Run(ctx context.Context, cli *CLI) error {
	eng, err := cli.newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	a, err := eng.Agent(c.Agent)
	if err != nil {
		return err
	}

	out := os.Stdout
	stop := watchTools(eng.Events(), out, "")
	res, err := a.Invoke(ctx, c.Prompt)
	stop()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, newMarkdown(0).render(res.Text()))
	fmt.Fprintln(out)
	printMetrics(out, res.Metrics)
	return nil
}

// ChatCmd runs an interactive session.
type ChatCmd struct {
	Agent string `arg:"" optional:"" help:"Agent to chat with (default: entry agent)."`
}

func (c *ChatCmd) Run(ctx context.Context, cli *CLI) error {
	eng, err := cli.newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	sess, err := eng.NewSession(c.Agent)
	if err != nil {
		return err
	}
	defer eng.CloseSession(sess.ID())

	fmt.Println(banner("kata · " + sess.AgentName()))
	stop := watchTools(eng.Events(), os.Stdout, sess.ID())
	defer stop()

	return chatLoop(ctx, os.Stdin, os.Stdout, sess.AgentName(), sess.Send)
}

type sendFunc func(ctx context.Context, text string) (agent.Result, error)

// chatLoop reads prompts from in until "exit", EOF or cancellation. Failed
// turns are reported and the loop continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, name string, send sendFunc) error {
	md := newMarkdown(0)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, userPrefixStyle.Render("You > "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		text := strings.TrimSpace(sc.Text())
		switch {
		case text == "":
			continue
		case strings.EqualFold(text, "exit"):
			return nil
		}

		res, err := send(ctx, text)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
			continue
		}

		fmt.Fprintln(out, agentPrefixStyle.Render(name+" >"))
		fmt.Fprintln(out, md.render(res.Text()))
	}
}
