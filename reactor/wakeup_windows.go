//go:build windows

package reactor

import (
	"net"
	"time"
)

// windows has no anonymous pipe that WSAPoll can watch (WSAPoll only
// supports sockets), so the wake mechanism is a connected loopback TCP
// pair instead of a pipe. readFD/writeFD are the underlying socket
// handles of the two ends.
type windowsWake struct {
	listener net.Listener
	server   net.Conn
	client   net.Conn
}

var wakeConns = map[int]*windowsWake{}

func newWakeFD() (readFD, writeFD int, err error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return -1, -1, err
	}
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return -1, -1, err
	}
	server, err := ln.Accept()
	if err != nil {
		_ = ln.Close()
		_ = client.Close()
		return -1, -1, err
	}
	_ = ln.Close()

	serverFD := int(socketHandle(server))
	clientFD := int(socketHandle(client))
	wakeConns[serverFD] = &windowsWake{server: server, client: client}
	return serverFD, clientFD, nil
}

func signalWakeFD(writeFD int) error {
	for _, w := range wakeConns {
		if int(socketHandle(w.client)) == writeFD {
			_, err := w.client.Write([]byte{1})
			return err
		}
	}
	return nil
}

func drainWakeFD(readFD int) {
	w, ok := wakeConns[readFD]
	if !ok {
		return
	}
	buf := make([]byte, 64)
	_ = w.server.SetReadDeadline(time.Now().Add(time.Millisecond))
	for {
		n, err := w.server.Read(buf)
		if n == 0 || err != nil {
			return
		}
	}
}

func closeWakeFD(readFD, writeFD int) {
	if w, ok := wakeConns[readFD]; ok {
		_ = w.server.Close()
		_ = w.client.Close()
		delete(wakeConns, readFD)
	}
}
