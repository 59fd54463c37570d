package observability

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIPResolver decides which address identifies the caller. X-Forwarded-For is only read when
// the socket peer is one of the trusted proxy ranges; otherwise the header is ignored so callers
// cannot pick their own rate-limit key.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver parses CIDRs or bare addresses. An empty list trusts nobody.
func NewClientIPResolver(proxies []string) (ClientIPResolver, error) {
	var resolver ClientIPResolver
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			resolver.trusted = append(resolver.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return ClientIPResolver{}, fmt.Errorf("observability: invalid trusted proxy %q", raw)
		}
		addr = addr.Unmap()
		resolver.trusted = append(resolver.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return resolver, nil
}

// Resolve returns the caller address and whether it came from X-Forwarded-For. The header is walked
// right to left past trusted hops; a malformed entry stops the walk at the last hop believed.
func (c ClientIPResolver) Resolve(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	peer, ok := parseHost(r.RemoteAddr)
	if !ok {
		return sanitizeString(strings.TrimSpace(r.RemoteAddr), eventLimit), false
	}
	if !c.trusts(peer) {
		return peer.String(), false
	}

	hops := forwardedHops(r.Header.Values("X-Forwarded-For"))
	client, forwarded := peer, false
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(hops[i])
		if err != nil {
			break
		}
		client, forwarded = addr.Unmap(), true
		if !c.trusts(client) {
			break
		}
	}
	return client.String(), forwarded
}

func (c ClientIPResolver) trusts(addr netip.Addr) bool {
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parseHost(remoteAddr string) (netip.Addr, bool) {
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func forwardedHops(values []string) []string {
	var hops []string
	for _, value := range values {
		for _, hop := range strings.Split(value, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
