package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionV1 = 1

// Encode serializes a session into the versioned binary wire format.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionV1)

	if err := writeString(&buf, s.UserID, "userID"); err != nil {
		return nil, err
	}
	if err := writeString(&buf, s.Email, "email"); err != nil {
		return nil, err
	}
	if err := writeString(&buf, s.DisplayName, "displayName"); err != nil {
		return nil, err
	}
	if err := writeString(&buf, s.Role, "role"); err != nil {
		return nil, err
	}

	if len(s.Permissions) > 255 {
		return nil, errors.New("too many permissions")
	}
	buf.WriteByte(byte(len(s.Permissions)))
	for _, tag := range s.Permissions {
		if err := writeString(&buf, tag, "permission"); err != nil {
			return nil, err
		}
	}

	if s.Dev {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.RevalidatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses the versioned binary wire format. SessionID is not part
// of the blob; callers assign it from the Redis key.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionV1 {
		return nil, errors.New("invalid session version")
	}

	s := &Session{SchemaVersion: version}

	if s.UserID, err = readString(reader); err != nil {
		return nil, err
	}
	if s.Email, err = readString(reader); err != nil {
		return nil, err
	}
	if s.DisplayName, err = readString(reader); err != nil {
		return nil, err
	}
	if s.Role, err = readString(reader); err != nil {
		return nil, err
	}

	count, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		s.Permissions = make([]string, 0, count)
		for i := 0; i < int(count); i++ {
			tag, err := readString(reader)
			if err != nil {
				return nil, err
			}
			s.Permissions = append(s.Permissions, tag)
		}
	}

	dev, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.Dev = dev == 1

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.RevalidatedAt); err != nil {
		return nil, err
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, value, field string) error {
	if len(value) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(value)))
	buf.WriteString(value)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
