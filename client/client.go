package client

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// client package for the FetenaHub exam archive.
// The server is an HTTP/JSON + multipart service; this package is the
// request/response boundary between the mini app views and the remote api:
// - one transport chokepoint that translates status codes into typed errors
// - normalization of server record shapes into one canonical shape
// - the chunked multi file upload transaction with progress
// - the feed query engine with a single fallback snapshot
// - optimistic like/follow toggles with rollback

// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func ParseId(idStr string) (Id, error) {
	return parseUuid(idStr)
}

func (self Id) LessThan(b Id) bool {
	return bytes.Compare(self[0:16], b[0:16]) < 0
}

func (self Id) String() string {
	return encodeUuid(self)
}

func (self *Id) MarshalJSON() ([]byte, error) {
	var buf [16]byte
	copy(buf[0:16], self[0:16])
	var buff bytes.Buffer
	buff.WriteByte('"')
	buff.WriteString(encodeUuid(buf))
	buff.WriteByte('"')
	b := buff.Bytes()
	return b, nil
}

func (self *Id) UnmarshalJSON(src []byte) error {
	if len(src) == 4 && string(src) == "null" {
		*self = Id{}
		return nil
	}
	if len(src) != 38 {
		return fmt.Errorf("invalid length for UUID: %v", len(src))
	}
	buf, err := parseUuid(string(src[1 : len(src)-1]))
	if err != nil {
		return err
	}
	*self = buf
	return nil
}

func parseUuid(src string) (dst [16]byte, err error) {
	switch len(src) {
	case 36:
		src = src[0:8] + src[9:13] + src[14:18] + src[19:23] + src[24:]
	case 32:
		// dashes already stripped, assume valid
	default:
		// assume invalid.
		return dst, fmt.Errorf("cannot parse UUID %v", src)
	}

	buf, err := hex.DecodeString(src)
	if err != nil {
		return dst, err
	}

	copy(dst[:], buf)
	return dst, err
}

func encodeUuid(src [16]byte) string {
	return fmt.Sprintf(
		"%x-%x-%x-%x-%x",
		src[0:4],
		src[4:6],
		src[6:8],
		src[8:10],
		src[10:16],
	)
}
