package cloudflare

import "net/netip"

// prefixMatcher answers address membership questions over a set of CIDR
// prefixes using one binary trie per address family. Membership in any
// prefix is sufficient; overlapping prefixes carry no precedence.
type prefixMatcher struct {
	// roots[0] covers IPv4, roots[1] covers IPv6.
	roots [2]*bitNode
}

type bitNode struct {
	children [2]*bitNode
	terminal bool
}

func familyIndex(addr netip.Addr) int {
	if addr.Is4() {
		return 0
	}
	return 1
}

func newPrefixMatcher(prefixes []netip.Prefix) prefixMatcher {
	var matcher prefixMatcher

	for _, prefix := range prefixes {
		addr := prefix.Addr()
		if !addr.IsValid() {
			continue
		}

		bits := prefix.Bits()
		if bits < 0 {
			continue
		}
		if bits > addr.BitLen() {
			bits = addr.BitLen()
		}

		family := familyIndex(addr)
		if matcher.roots[family] == nil {
			matcher.roots[family] = &bitNode{}
		}

		matcher.roots[family].insert(addrBytes(addr), bits)
	}

	return matcher
}

func (n *bitNode) insert(addr []byte, bits int) {
	node := n
	for bitIndex := 0; bitIndex < bits; bitIndex++ {
		bit := addrBit(addr, bitIndex)
		if node.children[bit] == nil {
			node.children[bit] = &bitNode{}
		}
		node = node.children[bit]
	}

	node.terminal = true
}

// contains reports whether ip falls within any inserted prefix. Invalid
// addresses are never members.
func (m prefixMatcher) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	root := m.roots[familyIndex(ip)]
	if root == nil {
		return false
	}

	addr := addrBytes(ip)
	node := root
	if node.terminal {
		return true
	}

	for bitIndex := 0; bitIndex < len(addr)*8; bitIndex++ {
		node = node.children[addrBit(addr, bitIndex)]
		if node == nil {
			return false
		}
		if node.terminal {
			return true
		}
	}

	return false
}

func addrBytes(addr netip.Addr) []byte {
	if addr.Is4() {
		bytes := addr.As4()
		return bytes[:]
	}

	bytes := addr.As16()
	return bytes[:]
}

func addrBit(addr []byte, bitIndex int) int {
	byteIndex := bitIndex / 8
	shift := uint(7 - (bitIndex % 8))
	if ((addr[byteIndex] >> shift) & 1) == 1 {
		return 1
	}
	return 0
}
