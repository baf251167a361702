package reach

import (
	"fmt"
	"strings"

	"netsim/internal/domain"
	"netsim/internal/netaddr"
)

// Outcome classifies a ping attempt
type Outcome string

const (
	OutcomeInvalidAddress Outcome = "invalid_address"
	OutcomeNoSourceIP     Outcome = "no_source_ip"
	OutcomeNoOwner        Outcome = "no_owner"
	OutcomeLoopback       Outcome = "loopback"
	OutcomeReachable      Outcome = "reachable"
	OutcomeUnreachable    Outcome = "unreachable"
)

// Echo request count and payload size
const (
	Count       = 4
	PayloadSize = 32
	TTL         = 128
)

// sampleTimes is the fixed round trip sample reused on every successful ping
var sampleTimes = [Count]int{1, 2, 1, 3}

// Report is the result of one ping
type Report struct {
	Target   string  `json:"target"`
	Outcome  Outcome `json:"outcome"`
	Sent     int     `json:"sent"`
	Received int     `json:"received"`
	Times    []int   `json:"times,omitempty"`
}

// Lost returns the number of unanswered requests
func (r Report) Lost() int {
	return r.Sent - r.Received
}

// LossPercent returns the integer loss percentage
func (r Report) LossPercent() int {
	if r.Sent == 0 {
		return 0
	}
	return r.Lost() * 100 / r.Sent
}

// Stats returns min, max and floor average of the reply times
func (r Report) Stats() (minMs, maxMs, avgMs int) {
	if len(r.Times) == 0 {
		return 0, 0, 0
	}
	minMs, maxMs = r.Times[0], r.Times[0]
	sum := 0
	for _, t := range r.Times {
		minMs = min(minMs, t)
		maxMs = max(maxMs, t)
		sum += t
	}
	return minMs, maxMs, sum / len(r.Times)
}

// Ping runs the layered ping decision from source towards target
func Ping(g Graph, source *domain.Device, target string) Report {
	r := Report{Target: target}

	if !netaddr.ValidIP(target) {
		r.Outcome = OutcomeInvalidAddress
		return r
	}
	if !source.HasIP() {
		r.Outcome = OutcomeNoSourceIP
		return r
	}

	r.Sent = Count
	owner, idx := Owner(g, target)
	switch {
	case owner == nil:
		r.Outcome = OutcomeNoOwner
	case owner.ID == source.ID:
		r.Outcome = OutcomeLoopback
		r.Received = Count
	case FindPath(g, source.ID, owner.ID) && owner.Interfaces[idx].AdminStatus:
		r.Outcome = OutcomeReachable
		r.Received = Count
		r.Times = append([]int(nil), sampleTimes[:]...)
	default:
		r.Outcome = OutcomeUnreachable
	}
	return r
}

// String renders the report the way a Windows or IOS ping prints it
func (r Report) String() string {
	switch r.Outcome {
	case OutcomeInvalidAddress:
		return "% Invalid IP address: " + r.Target
	case OutcomeNoSourceIP:
		return "% Source has no IP configured.\n% Ping requires at least one active interface with IP."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pinging %s with %d bytes of data:\n", r.Target, PayloadSize)

	for i := 0; i < r.Sent; i++ {
		switch r.Outcome {
		case OutcomeNoOwner:
			b.WriteString("Request timed out.\n")
		case OutcomeLoopback:
			fmt.Fprintf(&b, "Reply from %s: bytes=%d time<1ms TTL=%d\n", r.Target, PayloadSize, TTL)
		case OutcomeReachable:
			fmt.Fprintf(&b, "Reply from %s: bytes=%d time=%dms TTL=%d\n", r.Target, PayloadSize, r.Times[i], TTL)
		default:
			b.WriteString("Destination host unreachable.\n")
		}
	}

	fmt.Fprintf(&b, "\nPing statistics for %s:\n", r.Target)
	fmt.Fprintf(&b, "    Packets: Sent = %d, Received = %d, Lost = %d (%d%% loss)",
		r.Sent, r.Received, r.Lost(), r.LossPercent())

	if r.Outcome == OutcomeReachable {
		lo, hi, avg := r.Stats()
		b.WriteString("\nApproximate round trip times in milli-seconds:\n")
		fmt.Fprintf(&b, "    Minimum = %dms, Maximum = %dms, Average = %dms", lo, hi, avg)
	}
	return b.String()
}
