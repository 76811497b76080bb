// File: cmd/shell.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/internal/catalog"
	"github.com/xkilldash9x/dorkbuilder/internal/observability"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
	"github.com/xkilldash9x/dorkbuilder/internal/session"
)

const shellPrompt = "dorkbuilder> "

const shellHelp = `Commands:
  add <ref> [value]             append a block (ref is a template id or operator)
  set <pos|id> <value>          change a block's value
  rm <pos|id>                   remove a block
  mv <from> <to>                move a block (1-based positions)
  clear                         remove all blocks
  show                          list blocks and the current query
  blocks                        list available templates
  url [engine]                  print the search URL without recording it
  search [engine]               print the search URL and record it in the history
  engine [name]                 show or change the active engine
  custom [--allow-bare] <operator> <placeholder> <description>
                                register a custom template
  import <dork>                 add raw dork text as one block
  history [n]                   show recent searches
  help                          show this help
  exit                          leave the shell
`

// errExitShell ends the read loop without an error.
var errExitShell = errors.New("exit")

// shell is a line-oriented editor over one session. Block values are taken
// verbatim from the rest of the line since quotes are part of a dork.
type shell struct {
	sess   *session.Session
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

func newShell(c *service.Components, in io.Reader, out io.Writer) *shell {
	return &shell{
		sess:   c.Session,
		in:     in,
		out:    out,
		logger: observability.GetLogger().Named("shell"),
	}
}

// Run reads commands until EOF, "exit" or ctx is cancelled. Cancellation
// interrupts a pending read.
func (s *shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "dorkbuilder %s. Engine: %s. Type 'help' for commands.\n", Version, s.sess.Engine())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := readLines(ctx, s.in)

	for {
		fmt.Fprint(s.out, shellPrompt)
		var raw string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return <-readErr
			}
			raw = l
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := s.exec(ctx, line)
		if errors.Is(err, errExitShell) {
			return nil
		}
		if err != nil {
			s.logger.Debug("Shell command failed.", zap.String("line", line), zap.Error(err))
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
}

// readLines scans in on its own goroutine. lines is closed at EOF, after
// which readErr yields the scan error. A read still blocked when ctx ends is
// abandoned.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func (s *shell) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "add":
		ref, value, _ := strings.Cut(rest, " ")
		if ref == "" {
			return errors.New("usage: add <ref> [value]")
		}
		id, err := s.sess.Add(ref, strings.TrimSpace(value), -1)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added %s\n", id)
		return s.printQuery()
	case "set":
		ref, value, _ := strings.Cut(rest, " ")
		id, err := s.blockID(ref)
		if err != nil {
			return err
		}
		if err := s.sess.Set(id, strings.TrimSpace(value)); err != nil {
			return err
		}
		return s.printQuery()
	case "rm", "remove":
		id, err := s.blockID(rest)
		if err != nil {
			return err
		}
		if err := s.sess.Remove(id); err != nil {
			return err
		}
		return s.printQuery()
	case "mv", "move":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return errors.New("usage: mv <from> <to>")
		}
		from, err := parsePosition(fields[0])
		if err != nil {
			return err
		}
		to, err := parsePosition(fields[1])
		if err != nil {
			return err
		}
		if err := s.sess.Move(from, to); err != nil {
			return err
		}
		return s.printQuery()
	case "clear":
		s.sess.Clear()
		fmt.Fprintln(s.out, "Workspace cleared.")
		return nil
	case "show", "ls":
		return s.show()
	case "blocks", "templates":
		return writeTemplateTable(s.out, s.sess.Templates())
	case "url":
		u, err := s.sess.SearchURL(rest)
		if err != nil {
			return err
		}
		if u == "" {
			return session.ErrEmptyQuery
		}
		fmt.Fprintln(s.out, u)
		return nil
	case "search":
		rec, err := s.sess.Search(ctx, rest)
		if rec.URL != "" {
			fmt.Fprintln(s.out, rec.URL)
		}
		return err
	case "engine":
		if rest != "" {
			if err := s.sess.SetEngine(rest); err != nil {
				return err
			}
		}
		fmt.Fprintf(s.out, "Engine: %s\n", s.sess.Engine())
		return nil
	case "custom":
		return s.registerCustom(ctx, rest)
	case "import":
		if rest == "" {
			return errors.New("usage: import <dork>")
		}
		id := s.sess.Import(rest, "Imported query")
		fmt.Fprintf(s.out, "Added %s\n", id)
		return s.printQuery()
	case "history":
		limit := 10
		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid history limit %q", rest)
			}
			limit = n
		}
		records, err := s.sess.History(ctx, limit)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(s.out, "[%s] %s\n", r.Engine, r.Query)
		}
		return nil
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
		return nil
	case "exit", "quit":
		return errExitShell
	default:
		return fmt.Errorf("unknown command %q (try 'help')", name)
	}
}

func (s *shell) registerCustom(ctx context.Context, rest string) error {
	var opts []catalog.RegisterOption
	if after, ok := strings.CutPrefix(rest, "--allow-bare"); ok {
		opts = append(opts, catalog.AllowBareOperator())
		rest = strings.TrimSpace(after)
	}
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return errors.New("usage: custom [--allow-bare] <operator> <placeholder> <description>")
	}
	description := strings.Join(fields[2:], " ")

	tpl, err := s.sess.RegisterCustom(ctx, fields[0], fields[1], description, opts...)
	if tpl.ID != "" {
		fmt.Fprintf(s.out, "Registered %s (%s)\n", tpl.ID, tpl.Operator)
	}
	return err
}

func (s *shell) show() error {
	blocks := s.sess.Blocks()
	if len(blocks) == 0 {
		fmt.Fprintln(s.out, "Workspace is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tOPERATOR\tVALUE\t")
	for i, b := range blocks {
		value := b.Value
		if value == "" {
			value = "<" + b.Placeholder + ">"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", i+1, b.ID, b.Operator, value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return s.printQuery()
}

func (s *shell) printQuery() error {
	_, err := fmt.Fprintf(s.out, "Query: %s\n", s.sess.Query())
	return err
}

// blockID accepts a 1-based position or a block id.
func (s *shell) blockID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("a block position or id is required")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		b, ok := s.sess.BlockAt(n - 1)
		if !ok {
			return "", fmt.Errorf("no block at position %d", n)
		}
		return b.ID, nil
	}
	return arg, nil
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return n - 1, nil
}
