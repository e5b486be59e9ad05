package auditlog

// The audit-log keyspace uses FoundationDB tuple encoding so keys sort
// correctly byte-wise and stay compatible with tooling that speaks the tuple
// layer. All keys live under the "logs" prefix with two disjoint sub-ranges:
//
//	("logs", 1, guild-id)   -> 8-byte little-endian log channel id
//	("logs", 2, message-id) -> encrypted snapshot blob
import "encoding/binary"

const subspacePrefix = "logs"

const (
	subspaceMessagesEnabled uint64 = 1
	subspaceMessageLog      uint64 = 2
)

// configKey is the enabled-config key for one guild.
func configKey(guildID uint64) []byte {
	return packTuple(subspaceMessagesEnabled, guildID)
}

// messageKey is the message-log key for one message.
func messageKey(messageID uint64) []byte {
	return packTuple(subspaceMessageLog, messageID)
}

func packTuple(subspace, id uint64) []byte {
	key := packBytes(nil, []byte(subspacePrefix))
	key = packUint(key, subspace)
	return packUint(key, id)
}

// packBytes appends a tuple byte-string element: 0x01, the contents with NUL
// escaped as 0x00 0xFF, then a 0x00 terminator.
func packBytes(dst, b []byte) []byte {
	dst = append(dst, 0x01)
	for _, c := range b {
		dst = append(dst, c)
		if c == 0x00 {
			dst = append(dst, 0xFF)
		}
	}
	return append(dst, 0x00)
}

// packUint appends a tuple unsigned-integer element: type code 0x14 plus the
// minimal byte length, then the value big-endian.
func packUint(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)

	n := 0
	for n < 8 && buf[n] == 0 {
		n++
	}
	width := 8 - n

	dst = append(dst, byte(0x14+width))
	return append(dst, buf[n:]...)
}
