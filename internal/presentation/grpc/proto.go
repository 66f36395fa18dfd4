package grpc

// proto.go is a hand-written stand-in for generated code of the
// profileguard.v1.ProfileRiskService. Messages are plain Go structs carried by
// the JSON codec below; clients select it with the "json" content subtype.

import (
	"context"
	"encoding/json"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// CodecName is the gRPC content subtype for JSON-encoded messages.
const CodecName = "json"

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "profileguard.v1.ProfileRiskService"

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec marshals messages with encoding/json.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return CodecName }

// ProfileRiskServiceServer is the server API for ProfileRiskService.
type ProfileRiskServiceServer interface {
	AssessAccount(context.Context, *AssessAccountRequest) (*AssessAccountResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	mustEmbedUnimplementedProfileRiskServiceServer()
}

// UnimplementedProfileRiskServiceServer provides forward-compatible default implementations.
type UnimplementedProfileRiskServiceServer struct{}

func (UnimplementedProfileRiskServiceServer) AssessAccount(context.Context, *AssessAccountRequest) (*AssessAccountResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessAccount not implemented")
}
func (UnimplementedProfileRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedProfileRiskServiceServer) mustEmbedUnimplementedProfileRiskServiceServer() {}

// RegisterProfileRiskServiceServer registers the service with the gRPC server.
func RegisterProfileRiskServiceServer(s grpclib.ServiceRegistrar, srv ProfileRiskServiceServer) {
	s.RegisterService(&profileRiskServiceDesc, srv)
}

var profileRiskServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfileRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "AssessAccount", Handler: assessAccountHandler},
		{MethodName: "GetAssessment", Handler: getAssessmentHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func assessAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(AssessAccountRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileRiskServiceServer).AssessAccount(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/AssessAccount"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileRiskServiceServer).AssessAccount(ctx, req.(*AssessAccountRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func getAssessmentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetAssessmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileRiskServiceServer).GetAssessment(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetAssessment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileRiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	}
	return interceptor(ctx, req, info, handler)
}
