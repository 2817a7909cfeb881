package proto

// BlockCipher is the keyed symmetric cipher applied to the body of
// Encrypted8/Encrypted16 frames. The retail client's algorithm is an
// external, already-fixed wire format; implementations plug in behind this
// interface. Bodies must be a multiple of BlockSize or framing fails.
type BlockCipher interface {
	BlockSize() int
	Encrypt(body []byte)
	Decrypt(body []byte)
}

// xorMask is the static per-direction mask applied to everything after the
// frame header, regardless of kind. A nil mask disables the layer.
type xorMask []byte

func (m xorMask) apply(body []byte) {
	if len(m) == 0 {
		return
	}
	for i := range body {
		body[i] ^= m[i%len(m)]
	}
}

// DefaultClientMask is the 32-byte mask the 1.02c client applies to every
// packet it sends. Servers configure it on the receive direction.
var DefaultClientMask = []byte{
	0xAB, 0x11, 0xCD, 0xFE, 0x18, 0x23, 0xC5, 0xA3,
	0xCA, 0x33, 0xC1, 0xCC, 0x66, 0x67, 0x21, 0xF3,
	0x32, 0x12, 0x15, 0x35, 0x29, 0xFF, 0xFE, 0x1D,
	0x44, 0xEF, 0xCD, 0x41, 0x26, 0x3C, 0x4E, 0x4D,
}

// Default key material for the game tier stream ciphers, one per
// direction. Deployments sharing clients must share these.
var (
	DefaultServerKey = []byte{
		0xE7, 0x6D, 0x3A, 0x89, 0xBC, 0xB2, 0x9F, 0x73,
		0x23, 0xA8, 0xFE, 0xB6, 0x49, 0x5D, 0x39, 0x5D,
	}
	DefaultClientKey = []byte{
		0x0F, 0x4D, 0x7A, 0x99, 0xD1, 0x47, 0x35, 0xE8,
		0xC1, 0x3B, 0x86, 0x54, 0x9B, 0x12, 0x6A, 0xF0,
	}
)

// streamCipher is a length-preserving keyed cipher with a 1-byte block,
// chaining each byte against the previous ciphertext byte. It stands in for
// the retail algorithm behind the BlockCipher interface.
type streamCipher struct {
	key []byte
}

// NewStreamCipher returns a keyed BlockCipher usable on either direction.
// Both peers must construct it from the same key material.
func NewStreamCipher(key []byte) BlockCipher {
	k := make([]byte, len(key))
	copy(k, key)
	return &streamCipher{key: k}
}

func (c *streamCipher) BlockSize() int { return 1 }

func (c *streamCipher) Encrypt(body []byte) {
	var prev byte
	for i := range body {
		body[i] ^= c.key[i%len(c.key)] ^ prev
		prev = body[i]
	}
}

func (c *streamCipher) Decrypt(body []byte) {
	var prev byte
	for i := range body {
		ct := body[i]
		body[i] ^= c.key[i%len(c.key)] ^ prev
		prev = ct
	}
}
