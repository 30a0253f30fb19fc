// Package login handles interactive authentication flows that need input
// from the operator, such as SMS verification codes, and importing cookie
// headers captured from a browser session.
package login

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmcleod/redpost/session"
)

// CodePrompt asks the operator for a verification code. Implementations
// block until a code is entered or the context is cancelled.
type CodePrompt interface {
	Code(ctx context.Context, hint string) (string, error)
}

// TerminalPrompt reads verification codes line by line from in, writing the
// hint to out first.
type TerminalPrompt struct {
	in  io.Reader
	out io.Writer
}

func NewTerminalPrompt(in io.Reader, out io.Writer) *TerminalPrompt {
	return &TerminalPrompt{in: in, out: out}
}

// Code writes the hint and blocks on the next input line. Reading happens in
// a goroutine so a cancelled context returns promptly even while the reader
// still blocks.
func (p *TerminalPrompt) Code(ctx context.Context, hint string) (string, error) {
	if hint != "" {
		fmt.Fprintf(p.out, "%s: ", hint)
	}

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && line == "" {
			ch <- result{err: err}
			return
		}
		ch <- result{code: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading verification code: %w", r.err)
		}
		if r.code == "" {
			return "", fmt.Errorf("empty verification code")
		}
		return r.code, nil
	}
}

var _ CodePrompt = (*TerminalPrompt)(nil)

// CookieStore is the part of session.FileStore that cookie import needs.
type CookieStore interface {
	ReplaceCookies(cookies []session.Cookie) error
}

// ImportCookieHeader parses a browser "name=value; ..." cookie header and
// installs it as the active session, invalidating any cached token.
func ImportCookieHeader(store CookieStore, header string) error {
	cookies := session.ParseCookieHeader(header)
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies found in header")
	}
	if err := store.ReplaceCookies(cookies); err != nil {
		return fmt.Errorf("replacing cookies: %w", err)
	}
	return nil
}
