package utils

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintern/forum/config"
)

func useSMTP(t *testing.T, host string, port int) {
	t.Helper()
	prev := config.Get()
	next := prev
	next.SMTPHost = host
	next.SMTPPort = port
	next.SMTPFrom = "noreply@mintern.example"
	config.Set(next)
	t.Cleanup(func() { config.Set(prev) })
}

func TestSMTPMailerNotConfigured(t *testing.T) {
	useSMTP(t, "", 0)

	err := NewSMTPMailer().Send(context.Background(), []string{"a@example.com"}, "s", "b")
	assert.ErrorIs(t, err, ErrSMTPNotConfigured)
	assert.NoError(t, NewSMTPMailer().Send(context.Background(), nil, "s", "b"))
}

func TestSMTPMailerHonorsContextOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// accept connections and never send the greeting
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	useSMTP(t, host, port)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = NewSMTPMailer().Send(ctx, []string{"a@example.com"}, "Activity on Mintern!", "hello")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}
