package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

type identityKey struct{}

// IdentityResolver transforma o IP do cliente em um hash salgado e irreversível.
// Cabeçalhos de proxy só são considerados quando o peer TCP é um proxy confiável.
type IdentityResolver struct {
	salt      string
	trustedV4 *ipaddr.IPv4AddressTrie
	trustedV6 *ipaddr.IPv6AddressTrie
}

func NewIdentityResolver(salt string, trustedProxies []string) (*IdentityResolver, error) {
	if salt == "" {
		return nil, fmt.Errorf("identity salt is required")
	}

	resolver := &IdentityResolver{
		salt:      salt,
		trustedV4: &ipaddr.IPv4AddressTrie{},
		trustedV6: &ipaddr.IPv6AddressTrie{},
	}

	for _, cidr := range trustedProxies {
		addr, err := ipaddr.NewIPAddressString(cidr).ToAddress()
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		addr = addr.ToPrefixBlock()
		if addr.IsIPv4() {
			resolver.trustedV4.Add(addr.ToIPv4())
		} else if addr.IsIPv6() {
			resolver.trustedV6.Add(addr.ToIPv6())
		}
	}

	return resolver, nil
}

// ClientIP returns the address the request is attributed to. Behind a trusted
// proxy the X-Forwarded-For chain is read from the right: the first hop outside
// the trusted ranges is the peer the proxy saw, everything left of it came from
// the client.
func (ir *IdentityResolver) ClientIP(r *http.Request) string {
	socketIP := parseRemoteAddr(r.RemoteAddr)
	if socketIP == "" || !ir.isTrusted(socketIP) {
		return socketIP
	}

	hops := forwardedHops(r.Header.Values("X-Forwarded-For"))
	innermost := ""
	for i := len(hops) - 1; i >= 0; i-- {
		ip := parseIP(hops[i])
		if ip == "" {
			break
		}
		if !ir.isTrusted(ip) {
			return ip
		}
		innermost = ip
	}

	if ip := parseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != "" {
		return ip
	}
	if innermost != "" {
		return innermost
	}
	return socketIP
}

// forwardedHops flattens repeated X-Forwarded-For headers into one ordered list.
func forwardedHops(values []string) []string {
	var hops []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			hops = append(hops, strings.TrimSpace(part))
		}
	}
	return hops
}

// Hash returns the salted SHA-256 of ip, hex encoded.
func (ir *IdentityResolver) Hash(ip string) string {
	sum := sha256.Sum256([]byte(ir.salt + ":" + ip))
	return hex.EncodeToString(sum[:])
}

// Middleware stores the identity hash of the caller in the request context.
func (ir *IdentityResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := ir.Hash(ir.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

func (ir *IdentityResolver) isTrusted(ip string) bool {
	addr, err := ipaddr.NewIPAddressString(ip).ToAddress()
	if err != nil {
		return false
	}
	return (addr.IsIPv4() && ir.trustedV4.ElementContains(addr.ToIPv4())) ||
		(addr.IsIPv6() && ir.trustedV6.ElementContains(addr.ToIPv6()))
}

func parseRemoteAddr(remoteAddr string) string {
	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	return parseIP(remoteAddr)
}

// parseIP accepts a bare address, [v6]:port or v4:port.
func parseIP(s string) string {
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end == -1 {
			return ""
		}
		s = s[1:end]
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap().String()
	}
	if addrPort, err := netip.ParseAddrPort(s); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	return ""
}
