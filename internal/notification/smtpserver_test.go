package notification_test

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// smtpSession is what the fake server observed on one connection.
type smtpSession struct {
	auth  string
	from  string
	rcpts []string
	data  string
}

// fakeSMTPServer is a minimal plaintext SMTP server that advertises AUTH
// PLAIN and records every session. It only implements the commands the
// dispatcher tests need.
type fakeSMTPServer struct {
	ln         net.Listener
	host       string
	port       int
	rejectAuth bool

	mu       sync.Mutex
	sessions []*smtpSession
	wg       sync.WaitGroup
}

func startFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	s := &fakeSMTPServer{ln: ln, host: "127.0.0.1", port: addr.Port}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(conn)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeSMTPServer) serve(conn net.Conn) {
	defer conn.Close()

	sess := &smtpSession{}
	s.mu.Lock()
	s.sessions = append(s.sessions, sess)
	s.mu.Unlock()

	r := bufio.NewReader(conn)
	reply := func(format string, args ...any) {
		fmt.Fprintf(conn, format+"\r\n", args...)
	}
	reply("220 localhost Test SMTP Service Ready")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(verb, "EHLO"), strings.HasPrefix(verb, "HELO"):
			reply("250-localhost Hello")
			reply("250 AUTH PLAIN LOGIN")

		case strings.HasPrefix(verb, "AUTH PLAIN"):
			resp := strings.TrimSpace(line[len("AUTH PLAIN"):])
			if resp == "" {
				reply("334 ")
				next, err := r.ReadString('\n')
				if err != nil {
					return
				}
				resp = strings.TrimSpace(next)
			}
			decoded, _ := base64.StdEncoding.DecodeString(resp)
			s.mu.Lock()
			sess.auth = string(decoded)
			s.mu.Unlock()
			if s.rejectAuth {
				reply("535 5.7.8 Authentication credentials invalid")
				continue
			}
			reply("235 2.7.0 Authentication successful")

		case strings.HasPrefix(verb, "MAIL FROM:"):
			s.mu.Lock()
			sess.from = angleAddr(line)
			s.mu.Unlock()
			reply("250 OK")

		case strings.HasPrefix(verb, "RCPT TO:"):
			s.mu.Lock()
			sess.rcpts = append(sess.rcpts, angleAddr(line))
			s.mu.Unlock()
			reply("250 OK")

		case verb == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				dline, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dline, "\r\n") == "." {
					break
				}
				b.WriteString(dline)
			}
			s.mu.Lock()
			sess.data = b.String()
			s.mu.Unlock()
			reply("250 OK: queued as 12345")

		case verb == "QUIT":
			reply("221 Bye")
			return

		default:
			reply("250 OK")
		}
	}
}

// snapshot returns copies of the sessions recorded so far.
func (s *fakeSMTPServer) snapshot() []smtpSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]smtpSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		c := *sess
		c.rcpts = append([]string(nil), sess.rcpts...)
		out = append(out, c)
	}
	return out
}

func angleAddr(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}
