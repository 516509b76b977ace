// Package client implements the rKV client. It encodes commands, sends them
// through a transport and decodes the replies.
//
// Key Components:
//
//   - Client: Do sends any command as raw arguments and returns the decoded
//     codec.Reply. ERROR replies are additionally returned as *common.Error so
//     callers can test the category with errors.Is or common.KindOf.
//
//   - Select: returns a client for another logical database that shares the
//     transport and its connections.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:6380"},
//	    RetryCount: 3,
//	  },
//	  TimeoutSecond: 5,
//	}
//
//	c, _ := client.New(config, tcp.NewTCPClientTransport())
//	defer c.Close()
//
//	_ = c.Set(ctx, []byte("mykey"), []byte("myvalue"))
//	value, ok, _ := c.Get(ctx, []byte("mykey"))
//
// Thread Safety:
//
//	A Client is safe for concurrent use.
package client
