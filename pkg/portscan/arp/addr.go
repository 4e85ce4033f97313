package arp

import "net/netip"

func checkAddr(addr netip.Addr) error {
	if !addr.IsValid() {
		return ErrInvalidIP
	}
	if !addr.Unmap().Is4() {
		return ErrIPv6NotSupported
	}
	return nil
}
