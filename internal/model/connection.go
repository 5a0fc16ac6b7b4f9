package model

import "sort"

// Connection is a persisted connection descriptor. ConnectionString is the
// string as the user entered it, with credential placeholders intact.
type Connection struct {
	Name              string         `json:"-"`
	ConnectionString  string         `json:"connection_string"`
	ConnectionOptions map[string]any `json:"connection_options"`
}

// Clone returns a copy that shares no maps with c.
func (c *Connection) Clone() *Connection {
	if c == nil {
		return nil
	}
	out := &Connection{
		Name:              c.Name,
		ConnectionString:  c.ConnectionString,
		ConnectionOptions: make(map[string]any, len(c.ConnectionOptions)),
	}
	for k, v := range c.ConnectionOptions {
		out.ConnectionOptions[k] = v
	}
	return out
}

// ConnectionDocument is the persisted form of every descriptor.
type ConnectionDocument struct {
	Connections map[string]*Connection `json:"connections"`
}

// SortConnections orders connections by name.
func SortConnections(conns []*Connection) {
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].Name < conns[j].Name
	})
}
