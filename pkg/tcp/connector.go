package tcp

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"
)

// Client 基于 net.Conn 的行协议客户端
type Client struct {
	config  *ClientConfig
	conn    net.Conn
	scanner *bufio.Scanner
	wmu     sync.Mutex
}

// Dial 连接服务端
func Dial(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.TCPKeepAlive,
	}
	conn, err := d.DialContext(ctx, cfg.Network, cfg.Addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), cfg.MaxLineSize)
	return &Client{config: cfg, conn: conn, scanner: sc}, nil
}

// WriteLine 写出一行
func (c *Client) WriteLine(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(appendNewline(line))
	return err
}

// ReadLine 读取一行（不含换行符）
func (c *Client) ReadLine() (string, error) {
	if c.config.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrConnectionClosed
	}
	return c.scanner.Text(), nil
}

// Request 发送一行并等待一行响应
func (c *Client) Request(line string) (string, error) {
	if err := c.WriteLine(line); err != nil {
		return "", err
	}
	return c.ReadLine()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}
