// Package logs implements the gRPC surface of the logs provider.
package logs

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/logsprovider/internal/platform/errors"
	"github.com/louisbranch/logsprovider/internal/services/logs/notify"
	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service implements LogsProviderServer on top of a provider and a change hub.
type Service struct {
	provider *provider.Provider
	hub      *notify.Hub
}

// NewService creates the gRPC service.
func NewService(p *provider.Provider, hub *notify.Hub) *Service {
	return &Service{provider: p, hub: hub}
}

// Query answers a collection or item read.
func (s *Service) Query(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	uri, opts, err := DecodeQueryRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "query request: %v", err)
	}
	result, err := s.provider.Query(ctx, uri, opts)
	if err != nil {
		return nil, toStatus(ctx, err, uri)
	}
	return EncodeResultSet(result), nil
}

// Insert is rejected.
func (s *Service) Insert(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	req, err := decodeWriteRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "insert request: %v", err)
	}
	_, err = s.provider.Insert(ctx, req.uri, req.values)
	return nil, toStatus(ctx, err, req.uri)
}

// Update is rejected.
func (s *Service) Update(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	req, err := decodeWriteRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "update request: %v", err)
	}
	_, err = s.provider.Update(ctx, req.uri, req.values, req.selection, req.selectionArgs)
	return nil, toStatus(ctx, err, req.uri)
}

// Delete is rejected.
func (s *Service) Delete(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	req, err := decodeWriteRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "delete request: %v", err)
	}
	_, err = s.provider.Delete(ctx, req.uri, req.selection, req.selectionArgs)
	return nil, toStatus(ctx, err, req.uri)
}

// GetType is rejected.
func (s *Service) GetType(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	_, err := s.provider.GetType(ctx, in.GetValue())
	return nil, toStatus(ctx, err, in.GetValue())
}

// Watch streams the URI of every change related to the requested URI until
// the client goes away.
func (s *Service) Watch(in *wrapperspb.StringValue, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	uri := in.GetValue()
	ctx := stream.Context()
	if _, err := s.provider.Router().Classify(uri); err != nil {
		return toStatus(ctx, errors.Join(provider.ErrInvalidAddress, err), uri)
	}
	if s.hub == nil {
		return status.Error(codes.Unavailable, "change notifications are not configured")
	}
	sub, err := s.hub.Subscribe(uri)
	if err != nil {
		return status.Errorf(codes.Unavailable, "subscribe: %v", err)
	}
	defer s.hub.Unsubscribe(sub.ID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := stream.Send(wrapperspb.String(changed)); err != nil {
				return err
			}
		}
	}
}

// LocaleHeader is the incoming metadata key naming the caller's preferred
// locales, in Accept-Language form.
const LocaleHeader = "accept-language"

func toStatus(ctx context.Context, err error, uri string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	code := apperrors.CodeUnknown
	switch {
	case errors.Is(err, provider.ErrInvalidAddress):
		code = apperrors.CodeInvalidAddress
	case errors.Is(err, provider.ErrOperationNotSupported):
		code = apperrors.CodeOperationNotSupported
	case errors.Is(err, storage.ErrStoreWrite):
		code = apperrors.CodeStoreWriteFailed
	}
	appErr := apperrors.Wrap(code, err.Error(), err).WithMetadata(map[string]string{"uri": uri})
	return apperrors.HandleError(appErr, requestLocale(ctx))
}

func requestLocale(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return apperrors.DefaultLocale
	}
	if values := md.Get(LocaleHeader); len(values) > 0 {
		return strings.Join(values, ",")
	}
	return apperrors.DefaultLocale
}
