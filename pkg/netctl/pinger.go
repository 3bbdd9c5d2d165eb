package netctl

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// pinger sends echo probes to a target.
type pinger interface {
	Ping(ctx context.Context, target string, count int, timeout time.Duration) ([]PingResult, error)
}

// icmpPinger sends raw ICMP echo requests. Requires elevated privileges on
// most systems; sharedPing falls back to the platform ping binary when the
// listener cannot be created.
type icmpPinger struct{}

func (p *icmpPinger) Ping(ctx context.Context, target string, count int, timeout time.Duration) ([]PingResult, error) {
	ip := net.ParseIP(target)
	if ip == nil {
		ips, err := net.LookupIP(target)
		if err != nil || len(ips) == 0 {
			return nil, fmt.Errorf("failed to resolve target %s: %w", target, err)
		}
		for _, resolved := range ips {
			if resolved.To4() != nil {
				ip = resolved
				break
			}
		}
		if ip == nil {
			return nil, fmt.Errorf("no IPv4 address found for target %s", target)
		}
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create ICMP listener (may require elevated privileges): %w", err)
	}
	defer conn.Close()

	results := make([]PingResult, 0, count)

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		results = append(results, p.singlePing(conn, ip, timeout))

		// 100ms between probes.
		if i < count-1 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}

	return results, nil
}

func (p *icmpPinger) singlePing(conn *icmp.PacketConn, ip net.IP, timeout time.Duration) PingResult {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   1,
			Seq:  1,
			Data: []byte("wifi-doctor-reachability-ping"),
		},
	}

	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return PingResult{Error: fmt.Errorf("failed to marshal ICMP message: %w", err)}
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return PingResult{Error: fmt.Errorf("failed to set deadline: %w", err)}
	}

	start := time.Now()
	if _, err := conn.WriteTo(msgBytes, &net.IPAddr{IP: ip}); err != nil {
		return PingResult{Error: fmt.Errorf("failed to send ICMP echo request: %w", err)}
	}

	reply := make([]byte, 1500)
	n, peer, err := conn.ReadFrom(reply)
	rtt := time.Since(start)
	if err != nil {
		return PingResult{Error: fmt.Errorf("failed to receive ICMP echo reply: %w", err)}
	}

	replyMsg, err := icmp.ParseMessage(1, reply[:n]) // 1 = ICMP protocol for IPv4
	if err != nil {
		return PingResult{Error: fmt.Errorf("failed to parse ICMP reply: %w", err)}
	}
	if replyMsg.Type != ipv4.ICMPTypeEchoReply {
		return PingResult{Error: fmt.Errorf("received unexpected ICMP type: %v", replyMsg.Type)}
	}
	if peer.String() != ip.String() {
		return PingResult{Error: fmt.Errorf("received reply from unexpected host: %s (expected %s)", peer.String(), ip.String())}
	}

	return PingResult{Success: true, RTT: rtt}
}

// sharedPing probes with raw ICMP and falls back to the platform ping binary
// when the process lacks raw socket privileges.
func sharedPing(ctx context.Context, runner commandRunner, target string, count int, timeout time.Duration) ([]PingResult, error) {
	icmpResults, err := (&icmpPinger{}).Ping(ctx, target, count, timeout)
	if err == nil {
		return icmpResults, nil
	}
	if ctx.Err() != nil {
		return icmpResults, ctx.Err()
	}
	return binaryPing(ctx, runner, target, count, timeout)
}

// binaryPing shells out to the platform ping binary, one probe per
// invocation so each probe honors its own timeout.
func binaryPing(ctx context.Context, runner commandRunner, target string, count int, timeout time.Duration) ([]PingResult, error) {
	results := make([]PingResult, 0, count)
	waitSecs := int(timeout.Seconds())
	if waitSecs < 1 {
		waitSecs = 1
	}

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		output, err := runner.Run(probeCtx, "ping", "-c", "1", "-W", fmt.Sprint(waitSecs), target)
		cancel()
		rtt := time.Since(start)

		if err != nil {
			results = append(results, PingResult{Error: fmt.Errorf("ping failed: %w", err)})
			continue
		}
		if !strings.Contains(output, "1 packets received") &&
			!strings.Contains(output, "1 received") {
			results = append(results, PingResult{Error: fmt.Errorf("no reply from %s", target)})
			continue
		}
		results = append(results, PingResult{Success: true, RTT: rtt})
	}

	return results, nil
}
