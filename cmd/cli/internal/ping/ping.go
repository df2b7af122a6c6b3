// Package ping checks that a configured backend accepts a session.
package ping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/console"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/sleep"
)

// Options tunes the retry loop.
type Options struct {
	Retries int
	Backoff time.Duration

	// Batcher paces retries; a wall-clock batcher is used when nil
	Batcher *sleep.Batcher
}

// Run connects to the backend named by name, pings it and prints the handle.
func Run(ctx context.Context, s *session.Session, name string, opts Options) error {
	dbType, ok := dbcapabilities.ParseID(name)
	if !ok {
		return fmt.Errorf("unknown database type %q (known: %s)", name, knownTypes(s))
	}

	batcher := opts.Batcher
	if batcher == nil {
		batcher = sleep.NewBatcher()
	}

	var dots console.DotAnimation
	for attempt := 0; ; attempt++ {
		s.Printf("\rConnecting to %s%-3s", dbType, dots.Next())

		conn, err := s.Connect(ctx, dbType)
		if err == nil {
			s.Printf("\n")
			defer conn.Close()
			return report(ctx, s, conn)
		}

		if attempt >= opts.Retries {
			s.Printf("\n")
			return err
		}
		s.Log.Warnf("attempt %d to reach %s failed: %v", attempt+1, dbType, err)

		batcher.AddMicro(opts.Backoff.Microseconds())
		if err := batcher.Execute(ctx); err != nil {
			s.Printf("\n")
			return err
		}
	}
}

func report(ctx context.Context, s *session.Session, conn adapter.Connector) error {
	h, err := conn.Connection()
	if err != nil {
		return err
	}

	start := time.Now()
	if err := h.Ping(ctx); err != nil {
		return err
	}
	rtt := time.Since(start)

	c := h.Capabilities()
	paradigms := make([]string, len(c.Paradigms))
	for i, p := range c.Paradigms {
		paradigms[i] = string(p)
	}

	s.Printf("✅ %s is reachable\n", c.Name)
	s.Printf("  Session:   %s\n", h.ID())
	s.Printf("  Endpoint:  %s\n", h.Endpoint())
	s.Printf("  Secure:    %t\n", h.Secure())
	if h.InsecureTLS() {
		s.Printf("  ⚠️  server certificate is not verified\n")
	}
	s.Printf("  Paradigms: %s\n", strings.Join(paradigms, ", "))
	s.Printf("  Ping:      %s\n", rtt.Round(time.Microsecond))
	return nil
}

func knownTypes(s *session.Session) string {
	types := s.Registry.ListRegistered()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
