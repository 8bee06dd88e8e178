// Package platform holds process-level integration with the desktop.
package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"strings"
	"time"
)

// ErrAlreadyRunning is returned when another process owns the instance port.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	raiseCommand = "raise"
	dialTimeout  = time.Second

	lowestPort  = 20000
	highestPort = 39999
)

// Instance owns the loopback port that marks a running trainer. Later
// launches connect to it to bring the open window forward instead of
// starting a second scheduler.
type Instance struct {
	listener net.Listener
}

// AcquireSingleInstance claims the port derived from appName.
func AcquireSingleInstance(appName string) (*Instance, error) {
	listener, err := net.Listen("tcp", instanceAddress(appName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	return &Instance{listener: listener}, nil
}

// Serve handles raise requests until ctx is cancelled or the instance is
// released.
func (instance *Instance) Serve(ctx context.Context, onRaise func()) {
	stop := context.AfterFunc(ctx, func() { _ = instance.Release() })
	defer stop()

	for {
		conn, err := instance.listener.Accept()
		if err != nil {
			return
		}
		go instance.handle(conn, onRaise)
	}
}

func (instance *Instance) handle(conn net.Conn, onRaise func()) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
	request, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || strings.TrimSpace(request) != raiseCommand {
		return
	}
	if onRaise != nil {
		onRaise()
	}
}

// RaiseRunning asks the process holding appName's port to show its window.
func RaiseRunning(appName string) error {
	conn, err := net.DialTimeout("tcp", instanceAddress(appName), dialTimeout)
	if err != nil {
		return fmt.Errorf("contact running instance: %w", err)
	}
	defer conn.Close()
	if _, err := fmt.Fprintln(conn, raiseCommand); err != nil {
		return fmt.Errorf("send raise: %w", err)
	}
	return nil
}

// Release gives the port back. Releasing twice is not an error.
func (instance *Instance) Release() error {
	if instance == nil || instance.listener == nil {
		return nil
	}
	if err := instance.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func instanceAddress(appName string) string {
	return net.JoinHostPort("127.0.0.1", fmt.Sprint(instancePort(appName)))
}

func instancePort(appName string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	span := uint32(highestPort - lowestPort + 1)
	return lowestPort + int(hash.Sum32()%span)
}
