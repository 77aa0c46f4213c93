package logs

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "logs.v1.LogsProvider"

const (
	queryMethod   = "/" + ServiceName + "/Query"
	insertMethod  = "/" + ServiceName + "/Insert"
	updateMethod  = "/" + ServiceName + "/Update"
	deleteMethod  = "/" + ServiceName + "/Delete"
	getTypeMethod = "/" + ServiceName + "/GetType"
	watchMethod   = "/" + ServiceName + "/Watch"
)

// LogsProviderServer is the server API for logs.v1.LogsProvider. Query
// takes a QueryRequest and returns a QueryResponse; the write-shaped calls
// take a WriteRequest and return a WriteResponse. The messages are built
// from the descriptor in schema.go.
type LogsProviderServer interface {
	Query(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)
	Insert(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)
	Update(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)
	Delete(context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)
	GetType(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Watch(*wrapperspb.StringValue, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
}

// RegisterLogsProviderServer registers srv on s.
func RegisterLogsProviderServer(s grpc.ServiceRegistrar, srv LogsProviderServer) {
	s.RegisterService(&serviceDesc, srv)
}

func unaryHandler(
	method string,
	newIn func() *dynamicpb.Message,
	call func(LogsProviderServer, context.Context, *dynamicpb.Message) (*dynamicpb.Message, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LogsProviderServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LogsProviderServer), ctx, req.(*dynamicpb.Message))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func getTypeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogsProviderServer).GetType(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTypeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LogsProviderServer).GetType(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LogsProviderServer).Watch(in, &grpc.GenericServerStream[wrapperspb.StringValue, wrapperspb.StringValue]{ServerStream: stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LogsProviderServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Query",
			Handler: unaryHandler(queryMethod, NewQueryRequest, func(s LogsProviderServer, ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
				return s.Query(ctx, in)
			}),
		},
		{
			MethodName: "Insert",
			Handler: unaryHandler(insertMethod, NewWriteRequest, func(s LogsProviderServer, ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
				return s.Insert(ctx, in)
			}),
		},
		{
			MethodName: "Update",
			Handler: unaryHandler(updateMethod, NewWriteRequest, func(s LogsProviderServer, ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
				return s.Update(ctx, in)
			}),
		},
		{
			MethodName: "Delete",
			Handler: unaryHandler(deleteMethod, NewWriteRequest, func(s LogsProviderServer, ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
				return s.Delete(ctx, in)
			}),
		},
		{
			MethodName: "GetType",
			Handler:    getTypeHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: ProtoFile,
}
