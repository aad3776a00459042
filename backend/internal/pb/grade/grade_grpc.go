package gradepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "smartgrade.grade.GradeService"

const (
	GradeService_GetSubjectPerformance_FullMethodName = "/" + ServiceName + "/GetSubjectPerformance"
	GradeService_GetStudentSummary_FullMethodName     = "/" + ServiceName + "/GetStudentSummary"
	GradeService_GetClassPerformance_FullMethodName   = "/" + ServiceName + "/GetClassPerformance"
)

// GradeServiceClient is the client API for the grade service.
type GradeServiceClient interface {
	GetSubjectPerformance(ctx context.Context, in *SubjectPerformanceRequest, opts ...grpc.CallOption) (*SubjectPerformanceResponse, error)
	GetStudentSummary(ctx context.Context, in *StudentSummaryRequest, opts ...grpc.CallOption) (*StudentSummaryResponse, error)
	GetClassPerformance(ctx context.Context, in *ClassPerformanceRequest, opts ...grpc.CallOption) (*ClassPerformanceResponse, error)
}

type gradeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGradeServiceClient wraps a connection in a GradeServiceClient.
func NewGradeServiceClient(cc grpc.ClientConnInterface) GradeServiceClient {
	return &gradeServiceClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *gradeServiceClient) GetSubjectPerformance(ctx context.Context, in *SubjectPerformanceRequest, opts ...grpc.CallOption) (*SubjectPerformanceResponse, error) {
	out := new(SubjectPerformanceResponse)
	if err := c.cc.Invoke(ctx, GradeService_GetSubjectPerformance_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gradeServiceClient) GetStudentSummary(ctx context.Context, in *StudentSummaryRequest, opts ...grpc.CallOption) (*StudentSummaryResponse, error) {
	out := new(StudentSummaryResponse)
	if err := c.cc.Invoke(ctx, GradeService_GetStudentSummary_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gradeServiceClient) GetClassPerformance(ctx context.Context, in *ClassPerformanceRequest, opts ...grpc.CallOption) (*ClassPerformanceResponse, error) {
	out := new(ClassPerformanceResponse)
	if err := c.cc.Invoke(ctx, GradeService_GetClassPerformance_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// GradeServiceServer is the server API for the grade service.
type GradeServiceServer interface {
	GetSubjectPerformance(context.Context, *SubjectPerformanceRequest) (*SubjectPerformanceResponse, error)
	GetStudentSummary(context.Context, *StudentSummaryRequest) (*StudentSummaryResponse, error)
	GetClassPerformance(context.Context, *ClassPerformanceRequest) (*ClassPerformanceResponse, error)
}

// UnimplementedGradeServiceServer can be embedded for forward compatibility.
type UnimplementedGradeServiceServer struct{}

func (UnimplementedGradeServiceServer) GetSubjectPerformance(context.Context, *SubjectPerformanceRequest) (*SubjectPerformanceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSubjectPerformance not implemented")
}

func (UnimplementedGradeServiceServer) GetStudentSummary(context.Context, *StudentSummaryRequest) (*StudentSummaryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStudentSummary not implemented")
}

func (UnimplementedGradeServiceServer) GetClassPerformance(context.Context, *ClassPerformanceRequest) (*ClassPerformanceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetClassPerformance not implemented")
}

// RegisterGradeServiceServer registers srv on s.
func RegisterGradeServiceServer(s grpc.ServiceRegistrar, srv GradeServiceServer) {
	s.RegisterService(&GradeService_ServiceDesc, srv)
}

func _GradeService_GetSubjectPerformance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubjectPerformanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradeServiceServer).GetSubjectPerformance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GradeService_GetSubjectPerformance_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GradeServiceServer).GetSubjectPerformance(ctx, req.(*SubjectPerformanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _GradeService_GetStudentSummary_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StudentSummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradeServiceServer).GetStudentSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GradeService_GetStudentSummary_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GradeServiceServer).GetStudentSummary(ctx, req.(*StudentSummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _GradeService_GetClassPerformance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClassPerformanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GradeServiceServer).GetClassPerformance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GradeService_GetClassPerformance_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GradeServiceServer).GetClassPerformance(ctx, req.(*ClassPerformanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GradeService_ServiceDesc describes the grade service for grpc.Server.
var GradeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GradeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSubjectPerformance", Handler: _GradeService_GetSubjectPerformance_Handler},
		{MethodName: "GetStudentSummary", Handler: _GradeService_GetStudentSummary_Handler},
		{MethodName: "GetClassPerformance", Handler: _GradeService_GetClassPerformance_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "grade.json",
}
