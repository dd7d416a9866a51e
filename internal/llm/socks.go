package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// socks5Dialer implements the minimal SOCKS5 CONNECT handshake (RFC 1928)
// needed to tunnel the completion client's HTTPS traffic through a SOCKS
// proxy. No third-party SOCKS client is wired in the example pack, so this
// is a deliberate stdlib-only implementation rather than a fabricated
// dependency (see DESIGN.md).
type socks5Dialer struct {
	proxyAddr string
	username  string
	password  string
}

func newSOCKS5Dialer(proxyURL string) (*socks5Dialer, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse socks proxy url: %w", err)
	}
	d := &socks5Dialer{proxyAddr: u.Host}
	if u.User != nil {
		d.username = u.User.Username()
		d.password, _ = u.User.Password()
	}
	return d, nil
}

func (d *socks5Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("dial socks proxy: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := d.handshake(conn, addr); err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

func (d *socks5Dialer) handshake(conn net.Conn, addr string) error {
	methods := []byte{0x00} // no auth
	if d.username != "" {
		methods = []byte{0x02}
	}
	greeting := append([]byte{0x05, byte(len(methods))}, methods...)
	if _, err := conn.Write(greeting); err != nil {
		return err
	}

	resp := make([]byte, 2)
	if _, err := readFull(conn, resp); err != nil {
		return err
	}
	if resp[0] != 0x05 {
		return errors.New("socks5: unexpected server version")
	}
	switch resp[1] {
	case 0x00:
		// no auth required
	case 0x02:
		if err := d.authenticate(conn); err != nil {
			return err
		}
	default:
		return errors.New("socks5: no acceptable authentication method")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("socks5: invalid target address: %w", err)
	}
	portNum, err := net.LookupPort("tcp", port)
	if err != nil {
		return fmt.Errorf("socks5: invalid port: %w", err)
	}

	req := []byte{0x05, 0x01, 0x00, 0x03, byte(len(host))}
	req = append(req, []byte(host)...)
	req = append(req, byte(portNum>>8), byte(portNum&0xff))
	if _, err := conn.Write(req); err != nil {
		return err
	}

	header := make([]byte, 4)
	if _, err := readFull(conn, header); err != nil {
		return err
	}
	if header[1] != 0x00 {
		return fmt.Errorf("socks5: connect request failed, code %d", header[1])
	}
	switch header[3] {
	case 0x01: // IPv4
		if _, err := readFull(conn, make([]byte, 4+2)); err != nil {
			return err
		}
	case 0x03: // domain name
		lenBuf := make([]byte, 1)
		if _, err := readFull(conn, lenBuf); err != nil {
			return err
		}
		if _, err := readFull(conn, make([]byte, int(lenBuf[0])+2)); err != nil {
			return err
		}
	case 0x04: // IPv6
		if _, err := readFull(conn, make([]byte, 16+2)); err != nil {
			return err
		}
	default:
		return errors.New("socks5: unknown address type in reply")
	}
	return nil
}

func (d *socks5Dialer) authenticate(conn net.Conn) error {
	req := []byte{0x01, byte(len(d.username))}
	req = append(req, []byte(d.username)...)
	req = append(req, byte(len(d.password)))
	req = append(req, []byte(d.password)...)
	if _, err := conn.Write(req); err != nil {
		return err
	}
	resp := make([]byte, 2)
	if _, err := readFull(conn, resp); err != nil {
		return err
	}
	if resp[1] != 0x00 {
		return errors.New("socks5: authentication failed")
	}
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
