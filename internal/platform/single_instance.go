package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock. The
// running instance has been asked to show itself.
var ErrAlreadyRunning = errors.New("instance already running")

const activateMessage = "show"

// InstanceGuard holds the single-instance lock and serves activation
// requests from later launches.
type InstanceGuard struct {
	listener net.Listener
	address  string
	done     chan struct{}
	once     sync.Once
}

// AcquireSingleInstance binds a localhost port derived from appName. When
// the port is taken it pings the owner and returns ErrAlreadyRunning.
// onActivate runs on its own goroutine for each ping.
func AcquireSingleInstance(appName string, onActivate func()) (*InstanceGuard, error) {
	return acquireOn(fmt.Sprintf("127.0.0.1:%d", portFromName(appName)), onActivate)
}

func acquireOn(address string, onActivate func()) (*InstanceGuard, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if pingErr := requestActivation(address); pingErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, pingErr)
		}
		return nil, ErrAlreadyRunning
	}
	guard := &InstanceGuard{
		listener: listener,
		address:  listener.Addr().String(),
		done:     make(chan struct{}),
	}
	go guard.serve(onActivate)
	return guard, nil
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	var err error
	guard.once.Do(func() {
		err = guard.listener.Close()
		<-guard.done
	})
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func (guard *InstanceGuard) serve(onActivate func()) {
	defer close(guard.done)
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			return
		}
		go handleActivation(conn, onActivate)
	}
}

func handleActivation(conn net.Conn, onActivate func()) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	if strings.TrimSpace(line) == activateMessage && onActivate != nil {
		onActivate()
	}
}

func requestActivation(address string) error {
	conn, err := net.DialTimeout("tcp", address, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial running instance: %w", err)
	}
	defer conn.Close()
	if _, err := fmt.Fprintln(conn, activateMessage); err != nil {
		return fmt.Errorf("send activation: %w", err)
	}
	return nil
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
