package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"railbite/internal/auth"
	"railbite/internal/service"
)

const opsServiceName = "railbite.ops.v1.Ops"

// OpsServer exposes admin read models to internal tooling. Requests and
// responses are google.protobuf.Struct so no generated stubs are needed.
type OpsServer interface {
	SalesReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AvailableStaff(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var opsServiceDesc = grpc.ServiceDesc{
	ServiceName: opsServiceName,
	HandlerType: (*OpsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SalesReport", Handler: opsUnary("SalesReport", OpsServer.SalesReport)},
		{MethodName: "AvailableStaff", Handler: opsUnary("AvailableStaff", OpsServer.AvailableStaff)},
	},
	Streams: []grpc.StreamDesc{},
}

func registerOps(s grpc.ServiceRegistrar, srv OpsServer) {
	s.RegisterService(&opsServiceDesc, srv)
}

type opsMethod func(OpsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func opsUnary(name string, call opsMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + opsServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OpsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OpsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type opsServer struct {
	svc *service.Services
}

// SalesReport accepts optional "from" and "to" fields (RFC 3339 or YYYY-MM-DD).
func (s *opsServer) SalesReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	from, err := timeField(req, "from")
	if err != nil {
		return nil, err
	}
	to, err := timeField(req, "to")
	if err != nil {
		return nil, err
	}
	sum, err := s.svc.Reports.Sales(ctx, *p, from, to)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(sum)
}

// AvailableStaff returns the dispatch board under the "staff" field.
func (s *opsServer) AvailableStaff(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	staff, err := s.svc.Staff.ListAvailable(ctx, *p)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"staff": staff})
}

func timeField(req *structpb.Struct, name string) (time.Time, error) {
	v, ok := req.GetFields()[name]
	if !ok || v.GetStringValue() == "" {
		return time.Time{}, nil
	}
	raw := v.GetStringValue()
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %q", name, raw)
	}
	return t, nil
}

// toStruct converts v through its JSON form so field names match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		return status.Error(codes.Internal, "internal error")
	}
	switch se.Kind {
	case service.KindValidation:
		return status.Error(codes.InvalidArgument, se.Message)
	case service.KindNotFound:
		return status.Error(codes.NotFound, se.Message)
	case service.KindAuthorization:
		return status.Error(codes.PermissionDenied, se.Message)
	case service.KindInvalidState:
		return status.Error(codes.FailedPrecondition, se.Message)
	case service.KindConflict:
		return status.Error(codes.AlreadyExists, se.Message)
	case service.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, se.Message)
	}
	return status.Error(codes.Internal, se.Message)
}
