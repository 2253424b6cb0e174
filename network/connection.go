// network/connection.go
package network

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const headerSize = 6

// MaxPayloadSize bounds a single packet payload.
const MaxPayloadSize = 4 << 20

var ErrPayloadTooLarge = errors.New("payload exceeds maximum packet size")

type Packet struct {
	MsgID  uint16
	Data   []byte
	Length uint32
}

// Decode unmarshals the JSON payload into v. An empty payload leaves v as is.
func (p *Packet) Decode(v any) error {
	if len(p.Data) == 0 {
		return nil
	}
	return json.Unmarshal(p.Data, v)
}

// EncodePacket 封包: 2字节消息ID + 4字节数据长度 + 数据
func EncodePacket(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	packet := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint32(packet[2:6], uint32(len(data)))
	copy(packet[headerSize:], data)
	return packet, nil
}

// DecodePacket 解包, trailing bytes after the declared length are ignored.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < headerSize {
		return nil, io.ErrShortBuffer
	}

	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint32(data[2:6])
	if length > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	if len(data) < headerSize+int(length) {
		return nil, io.ErrShortBuffer
	}

	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[headerSize : headerSize+int(length)],
	}, nil
}

type Connection interface {
	Send(msgID uint16, data []byte) error
	SendJSON(msgID uint16, v any) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	heartbeat time.Duration
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

func (c *WSConnection) Send(msgID uint16, data []byte) error {
	packet, err := EncodePacket(msgID, data)
	if err != nil {
		return err
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

func (c *WSConnection) SendJSON(msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(msgID, data)
}

// ReadPacket blocks for the next frame. Every successful read pushes the
// read deadline out by two heartbeat intervals.
func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}
	return DecodePacket(data)
}

func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
