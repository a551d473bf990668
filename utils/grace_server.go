package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"
)

const (
	// inheritedListenerEnv tells a restarted child that fd 3 is the listening socket.
	inheritedListenerEnv = "MINTERN_INHERITED_LISTENER"
	inheritedListenerFD  = 3

	defaultServerTimeout = 60 * time.Second
	drainTimeout         = 30 * time.Second
)

// GraceServer serves handler on addr until SIGTERM or SIGINT, then drains
// in-flight requests and runs onShutdown hooks in order. SIGUSR2 starts a
// child process on the same socket before draining, for zero-downtime deploys.
func GraceServer(addr string, handler http.Handler, onShutdown ...func()) error {
	ln, err := listen(addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  defaultServerTimeout,
		WriteTimeout: defaultServerTimeout,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		waitForStop(ln)

		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			Sugar.Errorw("http server shutdown incomplete", "error", err)
		} else {
			Sugar.Info("http server drained")
		}
		for _, hook := range onShutdown {
			hook()
		}
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}

func listen(addr string) (net.Listener, error) {
	if os.Getenv(inheritedListenerEnv) != "" {
		ln, err := net.FileListener(os.NewFile(inheritedListenerFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		Sugar.Infow("serving on inherited listener", "addr", ln.Addr().String())
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// waitForStop blocks until the process should stop serving.
func waitForStop(ln net.Listener) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	defer signal.Stop(signals)

	for sig := range signals {
		if sig != syscall.SIGUSR2 {
			Sugar.Infow("stopping", "signal", sig.String())
			return
		}
		pid, err := restart(ln)
		if err != nil {
			Sugar.Errorw("restart failed, still serving", "error", err)
			continue
		}
		Sugar.Infow("restarted, draining old process", "child_pid", pid)
		return
	}
}

// restart re-executes the binary with the listening socket as fd 3.
func restart(ln net.Listener) (int, error) {
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener %T cannot be inherited", ln)
	}
	file, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.Env = append(os.Environ(), inheritedListenerEnv+"=1")
	cmd.ExtraFiles = []*os.File{file}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}
