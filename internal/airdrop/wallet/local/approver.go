package local

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Approver asks the human to confirm a wallet action. A declined prompt returns
// (false, nil); only I/O failures and ctx cancellation return an error.
type Approver interface {
	Approve(ctx context.Context, prompt string) (bool, error)
}

// AutoApprover accepts every prompt (unattended runs, --yes).
type AutoApprover struct{}

// Approve implements Approver.
func (AutoApprover) Approve(context.Context, string) (bool, error) {
	return true, nil
}

// PromptApprover asks on Out and reads a y/N answer from In. It blocks until the
// human answers; there is no timeout.
type PromptApprover struct {
	in  *bufio.Reader
	src io.Reader
	out io.Writer
}

// NewPromptApprover creates an approver over the given streams, usually os.Stdin and os.Stderr.
func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{in: bufio.NewReader(in), src: in, out: out}
}

// Available reports whether In is an interactive terminal.
func (a *PromptApprover) Available() error {
	f, ok := a.src.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return errors.New("approval prompts need an interactive terminal")
	}

	return nil
}

// Approve implements Approver.
func (a *PromptApprover) Approve(ctx context.Context, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(a.out, "%s [y/N]: ", prompt); err != nil {
		return false, errors.Wrap(err, "failed to write prompt")
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)

	go func() {
		line, err := a.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans := <-ch:
		if ans.err != nil && !errors.Is(ans.err, io.EOF) {
			return false, errors.Wrap(ans.err, "failed to read answer")
		}
		switch strings.ToLower(strings.TrimSpace(ans.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
