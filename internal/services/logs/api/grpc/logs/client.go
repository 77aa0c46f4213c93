package logs

import (
	"context"
	"fmt"

	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote logs provider.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Query reads the rows addressed by uri.
func (c *Client) Query(ctx context.Context, uri string, opts provider.QueryOptions, callOpts ...grpc.CallOption) ([]storage.Log, error) {
	out := NewQueryResponse()
	if err := c.cc.Invoke(ctx, queryMethod, EncodeQueryRequest(uri, opts), out, callOpts...); err != nil {
		return nil, err
	}
	_, rows, err := DecodeResultSet(out)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return rows, nil
}

// Insert asks the provider to insert values. Providers reject it.
func (c *Client) Insert(ctx context.Context, uri string, values map[string]any, callOpts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, insertMethod, EncodeWriteRequest(uri, values, "", nil), NewWriteResponse(), callOpts...)
}

// Delete asks the provider to delete the rows addressed by uri. Providers
// reject it.
func (c *Client) Delete(ctx context.Context, uri string, selection string, selectionArgs []string, callOpts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, deleteMethod, EncodeWriteRequest(uri, nil, selection, selectionArgs), NewWriteResponse(), callOpts...)
}

// GetType asks for the MIME type of uri. Providers reject it.
func (c *Client) GetType(ctx context.Context, uri string, callOpts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, getTypeMethod, wrapperspb.String(uri), out, callOpts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Watch opens a stream of change URIs related to uri. The stream ends when
// ctx is canceled.
func (c *Client) Watch(ctx context.Context, uri string, callOpts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], watchMethod, callOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(wrapperspb.String(uri)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
