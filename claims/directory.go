package claims

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/bitfsorg/rewards-go/auth"
)

// Directory answers whether a recipient already has an account with the
// claim facility. The locker consults it only when missing accounts are
// not allowed.
type Directory interface {
	AccountExists(ctx context.Context, id auth.Identity) (bool, error)
}

// MemDirectory is an in-memory Directory.
type MemDirectory struct {
	mu       sync.RWMutex
	accounts map[auth.Identity]struct{}
}

// Compile-time interface check.
var _ Directory = (*MemDirectory)(nil)

// NewMemDirectory creates a directory holding ids.
func NewMemDirectory(ids ...auth.Identity) *MemDirectory {
	d := &MemDirectory{accounts: make(map[auth.Identity]struct{}, len(ids))}
	for _, id := range ids {
		d.accounts[id] = struct{}{}
	}
	return d
}

// Add registers an account.
func (d *MemDirectory) Add(id auth.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[id] = struct{}{}
}

// AccountExists reports whether id is registered.
func (d *MemDirectory) AccountExists(_ context.Context, id auth.Identity) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.accounts[id]
	return ok, nil
}

const (
	// defaultUpstream is the default recursive resolver for account lookups.
	defaultUpstream = "8.8.8.8:53"

	// dnsTimeout bounds a single account lookup.
	dnsTimeout = 5 * time.Second

	// edns0BufSize is the EDNS0 UDP buffer size.
	edns0BufSize = 4096

	// AccountRecordPrefix marks the TXT record published for an account.
	AccountRecordPrefix = "account="
)

// DNSDirectory looks accounts up as TXT records at <identity-hex>.<zone>.
// A record starting with AccountRecordPrefix means the account exists and
// NXDOMAIN means it does not.
type DNSDirectory struct {
	// Zone is the DNS zone accounts are published under.
	Zone string
	// Upstream is the resolver address (e.g., "8.8.8.8:53").
	Upstream string
	// Timeout bounds each query.
	Timeout time.Duration
	// RequireDNSSEC rejects answers without the AD flag.
	RequireDNSSEC bool
}

// Compile-time interface check.
var _ Directory = (*DNSDirectory)(nil)

// NewDNSDirectory creates a DNSDirectory for zone.
// If upstream is empty, it defaults to "8.8.8.8:53".
func NewDNSDirectory(zone, upstream string) *DNSDirectory {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSDirectory{Zone: zone, Upstream: upstream, Timeout: dnsTimeout}
}

// AccountExists queries the account record of id.
func (d *DNSDirectory) AccountExists(ctx context.Context, id auth.Identity) (bool, error) {
	zone := strings.Trim(d.Zone, ".")
	if zone == "" {
		return false, fmt.Errorf("%w: empty zone", ErrDirectoryLookup)
	}
	name := dns.Fqdn(id.String() + "." + zone)

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypeTXT)
	msg.RecursionDesired = true
	if d.RequireDNSSEC {
		msg.SetEdns0(edns0BufSize, true)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = dnsTimeout
	}
	client := &dns.Client{Timeout: timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, d.Upstream)
	if err != nil {
		return false, fmt.Errorf("%w: query %s: %w", ErrDirectoryLookup, name, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return false, nil
	default:
		return false, fmt.Errorf("%w: query %s: rcode %s",
			ErrDirectoryLookup, name, dns.RcodeToString[resp.Rcode])
	}

	if d.RequireDNSSEC && !resp.AuthenticatedData {
		return false, fmt.Errorf("%w: AD flag not set for %s", ErrDirectoryLookup, name)
	}

	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// TXT records may be split into multiple strings; join them.
			if strings.HasPrefix(strings.Join(txt.Txt, ""), AccountRecordPrefix) {
				return true, nil
			}
		}
	}
	return false, nil
}
