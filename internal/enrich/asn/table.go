// internal/enrich/asn/table.go

// Package asn attributes IP addresses to autonomous systems using a local
// snapshot of the iptoasn.com ip2asn table. The table is built once per
// process and is read-only afterwards, so every pipeline can share it
// without synchronization.
package asn

import (
	"bufio"
	"compress/gzip"
	"io"
	"math/bits"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
)

// Table answers point lookups over the ip2asn ranges. Each TSV range is
// decomposed at build time into its covering CIDR prefixes (v4 through
// uint32 math, v6 through two-uint64 math); lookups binary-search the
// sorted prefix slices. Ranges are assumed disjoint, as ip2asn publishes
// them.
type Table struct {
	v4 []prefixV4
	v6 []prefixV6
}

type prefixV4 struct {
	start, end uint32
	network    netip.Prefix
	asn        uint32
	country    string
	org        string
}

type prefixV6 struct {
	start, end u128
	network    netip.Prefix
	asn        uint32
	country    string
	org        string
}

var _ ports.AsnDB = (*Table)(nil)

// Load reads an ip2asn TSV snapshot from disk, transparently gunzipping
// .gz files, and builds the table.
func Load(path string, logger logx.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrASNTableBuild, "open snapshot %s: %v", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrASNTableBuild, "decompress snapshot %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return Build(r, logger)
}

// Build parses `start_ip<TAB>end_ip<TAB>asn<TAB>country<TAB>org` lines.
// Malformed lines are skipped with a warning; "Not routed" ranges (asn 0)
// are dropped. An empty result is a build error: nothing could ever be
// attributed.
func Build(r io.Reader, logger logx.Logger) (*Table, error) {
	if logger == nil {
		logger = logx.NewNop()
	}

	t := &Table{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	ranges := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 5)
		if len(fields) != 5 {
			skipped++
			logger.Warn("skipping malformed asn row", "line", lineNo, "fields", len(fields))
			continue
		}

		start, err1 := netip.ParseAddr(fields[0])
		end, err2 := netip.ParseAddr(fields[1])
		asnNum, err3 := strconv.ParseUint(fields[2], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			skipped++
			logger.Warn("skipping unparseable asn row", "line", lineNo)
			continue
		}
		if asnNum == 0 {
			// "Not routed" filler between announced ranges.
			continue
		}
		if start.Is4() != end.Is4() {
			skipped++
			logger.Warn("skipping mixed-family asn row", "line", lineNo)
			continue
		}

		country := fields[3]
		org := fields[4]
		if start.Is4() {
			t.appendV4(start, end, uint32(asnNum), country, org)
		} else {
			t.appendV6(start, end, uint32(asnNum), country, org)
		}
		ranges++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(domain.ErrASNTableBuild, "read snapshot: %v", err)
	}
	if ranges == 0 {
		return nil, errors.Wrap(domain.ErrASNTableBuild, "no usable ranges in snapshot")
	}

	sort.Slice(t.v4, func(i, j int) bool { return t.v4[i].start < t.v4[j].start })
	sort.Slice(t.v6, func(i, j int) bool { return t.v6[i].start.less(t.v6[j].start) })

	logger.Debug("asn table built",
		"ranges", ranges,
		"prefixes", t.Size(),
		"skipped_rows", skipped,
	)
	return t, nil
}

// Lookup returns the entry covering ip, or false when no announced range
// contains it.
func (t *Table) Lookup(ip netip.Addr) (ports.ASNEntry, bool) {
	if !ip.IsValid() {
		return ports.ASNEntry{}, false
	}
	ip = ip.Unmap()

	if ip.Is4() {
		key := beUint32(ip.As4())
		i := sort.Search(len(t.v4), func(i int) bool { return t.v4[i].start > key }) - 1
		if i >= 0 && key <= t.v4[i].end {
			p := t.v4[i]
			return ports.ASNEntry{Network: p.network, ASN: p.asn, Organization: p.org, CountryCode: p.country}, true
		}
		return ports.ASNEntry{}, false
	}

	key := beU128(ip.As16())
	i := sort.Search(len(t.v6), func(i int) bool { return key.less(t.v6[i].start) })
	i--
	if i >= 0 && !t.v6[i].end.less(key) {
		p := t.v6[i]
		return ports.ASNEntry{Network: p.network, ASN: p.asn, Organization: p.org, CountryCode: p.country}, true
	}
	return ports.ASNEntry{}, false
}

// Size returns the number of loaded prefixes.
func (t *Table) Size() int {
	return len(t.v4) + len(t.v6)
}

// appendV4 decomposes an inclusive v4 range into aligned power-of-two
// blocks. uint64 arithmetic sidesteps uint32 wraparound at 255.255.255.255.
func (t *Table) appendV4(startAddr, endAddr netip.Addr, asn uint32, country, org string) {
	s := uint64(beUint32(startAddr.As4()))
	e := uint64(beUint32(endAddr.As4()))
	for s <= e {
		k := bits.TrailingZeros64(s)
		if k > 32 {
			k = 32 // s == 0
		}
		if span := bits.Len64(e-s+1) - 1; span < k {
			k = span
		}
		size := uint64(1) << k
		t.v4 = append(t.v4, prefixV4{
			start:   uint32(s),
			end:     uint32(s + size - 1),
			network: netip.PrefixFrom(v4Addr(uint32(s)), 32-k),
			asn:     asn,
			country: country,
			org:     org,
		})
		s += size
	}
}

// appendV6 is the 128-bit version of appendV4, on a hi/lo uint64 pair.
func (t *Table) appendV6(startAddr, endAddr netip.Addr, asn uint32, country, org string) {
	s := beU128(startAddr.As16())
	e := beU128(endAddr.As16())
	for {
		k := s.trailingZeros()
		if span := spanBits(s, e); span < k {
			k = span
		}
		last := s.addPow2Minus1(k)
		t.v6 = append(t.v6, prefixV6{
			start:   s,
			end:     last,
			network: netip.PrefixFrom(v6Addr(s), 128-k),
			asn:     asn,
			country: country,
			org:     org,
		})
		if last == e {
			return
		}
		s = last.addOne()
	}
}

func beUint32(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func v4Addr(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// u128 is an unsigned 128-bit integer as a big-endian hi/lo pair.
type u128 struct {
	hi, lo uint64
}

func beU128(b [16]byte) u128 {
	return u128{
		hi: uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
			uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7]),
		lo: uint64(b[8])<<56 | uint64(b[9])<<48 | uint64(b[10])<<40 | uint64(b[11])<<32 |
			uint64(b[12])<<24 | uint64(b[13])<<16 | uint64(b[14])<<8 | uint64(b[15]),
	}
}

func v6Addr(v u128) netip.Addr {
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v.hi >> (56 - 8*i))
		b[8+i] = byte(v.lo >> (56 - 8*i))
	}
	return netip.AddrFrom16(b)
}

func (u u128) less(v u128) bool {
	if u.hi != v.hi {
		return u.hi < v.hi
	}
	return u.lo < v.lo
}

func (u u128) trailingZeros() int {
	if u.lo != 0 {
		return bits.TrailingZeros64(u.lo)
	}
	if u.hi != 0 {
		return 64 + bits.TrailingZeros64(u.hi)
	}
	return 128
}

func (u u128) addOne() u128 {
	lo, carry := bits.Add64(u.lo, 1, 0)
	return u128{hi: u.hi + carry, lo: lo}
}

// addPow2Minus1 returns u + 2^k - 1. Callers guarantee no overflow: the
// block size 2^k never exceeds the remaining range.
func (u u128) addPow2Minus1(k int) u128 {
	if k == 0 {
		return u
	}
	if k == 128 {
		return u128{hi: ^uint64(0), lo: ^uint64(0)}
	}
	var inc u128
	if k < 64 {
		inc = u128{lo: 1<<uint(k) - 1}
	} else {
		inc = u128{hi: 1<<uint(k-64) - 1, lo: ^uint64(0)}
	}
	lo, carry := bits.Add64(u.lo, inc.lo, 0)
	hi, _ := bits.Add64(u.hi, inc.hi, carry)
	return u128{hi: hi, lo: lo}
}

// spanBits returns floor(log2(e-s+1)): the widest block that fits between
// s and e inclusive.
func spanBits(s, e u128) int {
	dLo, borrow := bits.Sub64(e.lo, s.lo, 0)
	dHi, _ := bits.Sub64(e.hi, s.hi, borrow)
	if dHi == ^uint64(0) && dLo == ^uint64(0) {
		return 128 // full range, e-s+1 == 2^128
	}
	lo, carry := bits.Add64(dLo, 1, 0)
	hi := dHi + carry
	if hi != 0 {
		return 64 + bits.Len64(hi) - 1
	}
	return bits.Len64(lo) - 1
}
