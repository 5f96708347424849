package eapol

import "fmt"

// KeyInformation is the bit-packed Key Information field of an EAPOL-Key
// frame.
//
// IEEE Std 802.11-2016, 12.7.2, Figure 12-33.
type KeyInformation uint16

// Bit positions and masks within KeyInformation. Bits 4-5 and 14-15 are
// reserved.
const (
	keyInfoDescriptorVersion KeyInformation = 0x0007
	keyInfoKeyType           KeyInformation = 1 << 3
	keyInfoInstall           KeyInformation = 1 << 6
	keyInfoKeyACK            KeyInformation = 1 << 7
	keyInfoKeyMIC            KeyInformation = 1 << 8
	keyInfoSecure            KeyInformation = 1 << 9
	keyInfoError             KeyInformation = 1 << 10
	keyInfoRequest           KeyInformation = 1 << 11
	keyInfoEncryptedKeyData  KeyInformation = 1 << 12
	keyInfoSMKMessage        KeyInformation = 1 << 13
)

// A KeyType indicates whether an EAPOL-Key frame is part of a pairwise or
// group key exchange.
type KeyType uint8

// Possible KeyType values.
const (
	KeyTypeGroup KeyType = iota
	KeyTypePairwise
)

// String returns the string representation of a KeyType.
func (t KeyType) String() string {
	switch t {
	case KeyTypeGroup:
		return "group"
	case KeyTypePairwise:
		return "pairwise"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// Value returns the raw 16-bit value of k.
func (k KeyInformation) Value() uint16 { return uint16(k) }

// DescriptorVersion returns the key descriptor version, bits 0-2.
func (k KeyInformation) DescriptorVersion() uint8 {
	return uint8(k & keyInfoDescriptorVersion)
}

// KeyType returns the key type, bit 3.
func (k KeyInformation) KeyType() KeyType {
	if k.isSet(keyInfoKeyType) {
		return KeyTypePairwise
	}
	return KeyTypeGroup
}

// Install reports whether the install bit is set.
func (k KeyInformation) Install() bool { return k.isSet(keyInfoInstall) }

// KeyACK reports whether the key ack bit is set.
func (k KeyInformation) KeyACK() bool { return k.isSet(keyInfoKeyACK) }

// KeyMIC reports whether the key MIC bit is set.
func (k KeyInformation) KeyMIC() bool { return k.isSet(keyInfoKeyMIC) }

// Secure reports whether the secure bit is set.
func (k KeyInformation) Secure() bool { return k.isSet(keyInfoSecure) }

// Error reports whether the error bit is set.
func (k KeyInformation) Error() bool { return k.isSet(keyInfoError) }

// Request reports whether the request bit is set.
func (k KeyInformation) Request() bool { return k.isSet(keyInfoRequest) }

// EncryptedKeyData reports whether the encrypted key data bit is set.
func (k KeyInformation) EncryptedKeyData() bool { return k.isSet(keyInfoEncryptedKeyData) }

// SMKMessage reports whether the SMK message bit is set.
func (k KeyInformation) SMKMessage() bool { return k.isSet(keyInfoSMKMessage) }

// SetDescriptorVersion sets bits 0-2 to v. Bits of v above bit 2 are ignored.
func (k *KeyInformation) SetDescriptorVersion(v uint8) {
	*k = *k&^keyInfoDescriptorVersion | KeyInformation(v)&keyInfoDescriptorVersion
}

// SetKeyType sets the key type bit.
func (k *KeyInformation) SetKeyType(t KeyType) { k.set(keyInfoKeyType, t == KeyTypePairwise) }

// SetInstall sets or clears the install bit.
func (k *KeyInformation) SetInstall(v bool) { k.set(keyInfoInstall, v) }

// SetKeyACK sets or clears the key ack bit.
func (k *KeyInformation) SetKeyACK(v bool) { k.set(keyInfoKeyACK, v) }

// SetKeyMIC sets or clears the key MIC bit.
func (k *KeyInformation) SetKeyMIC(v bool) { k.set(keyInfoKeyMIC, v) }

// SetSecure sets or clears the secure bit.
func (k *KeyInformation) SetSecure(v bool) { k.set(keyInfoSecure, v) }

// SetError sets or clears the error bit.
func (k *KeyInformation) SetError(v bool) { k.set(keyInfoError, v) }

// SetRequest sets or clears the request bit.
func (k *KeyInformation) SetRequest(v bool) { k.set(keyInfoRequest, v) }

// SetEncryptedKeyData sets or clears the encrypted key data bit.
func (k *KeyInformation) SetEncryptedKeyData(v bool) { k.set(keyInfoEncryptedKeyData, v) }

// SetSMKMessage sets or clears the SMK message bit.
func (k *KeyInformation) SetSMKMessage(v bool) { k.set(keyInfoSMKMessage, v) }

func (k KeyInformation) isSet(bit KeyInformation) bool { return k&bit != 0 }

func (k *KeyInformation) set(bit KeyInformation, v bool) {
	if v {
		*k |= bit
	} else {
		*k &^= bit
	}
}
