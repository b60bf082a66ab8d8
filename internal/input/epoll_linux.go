//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const epollTimeoutMS = 250

// readLoop multiplexes every device on one epoll instance; waits are bounded
// so cancellation is noticed between reads.
func readLoop(ctx context.Context, files []*os.File, emit func(device string, ev rawEvent)) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	byFD := make(map[int32]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		byFD[int32(fd)] = f
		event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl add %s: %w", f.Name(), err)
		}
	}

	ready := make([]unix.EpollEvent, 32)
	buf := make([]byte, rawEventSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, ready, epollTimeoutMS)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			f := byFD[ready[i].Fd]
			if f == nil {
				continue
			}
			if ready[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("input device error or hangup: %s", f.Name())
			}
			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read %s: %w", f.Name(), err)
			}
			ev, err := decodeEvent(buf)
			if err != nil {
				continue
			}
			emit(f.Name(), ev)
		}
	}
}
