/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the full name of the Scribe gRPC service.
const ServiceName = "scribe.v1.ScribeService"

// Full method names of the service.
const (
	AttachDocumentMethod = "/" + ServiceName + "/AttachDocument"
	DetachDocumentMethod = "/" + ServiceName + "/DetachDocument"
	PushOperationMethod  = "/" + ServiceName + "/PushOperation"
	GetSnapshotMethod    = "/" + ServiceName + "/GetSnapshot"
	ListOperationsMethod = "/" + ServiceName + "/ListOperations"
	UpdatePresenceMethod = "/" + ServiceName + "/UpdatePresence"
	ListDocumentsMethod  = "/" + ServiceName + "/ListDocuments"
	WatchDocumentMethod  = "/" + ServiceName + "/WatchDocument"
)

// ScribeServiceServer is the server API of the Scribe service.
type ScribeServiceServer interface {
	AttachDocument(context.Context, *AttachDocumentRequest) (*AttachDocumentResponse, error)
	DetachDocument(context.Context, *DetachDocumentRequest) (*DetachDocumentResponse, error)
	PushOperation(context.Context, *PushOperationRequest) (*PushOperationResponse, error)
	GetSnapshot(context.Context, *GetSnapshotRequest) (*GetSnapshotResponse, error)
	ListOperations(context.Context, *ListOperationsRequest) (*ListOperationsResponse, error)
	UpdatePresence(context.Context, *UpdatePresenceRequest) (*UpdatePresenceResponse, error)
	ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error)
	WatchDocument(*WatchDocumentRequest, WatchDocumentServer) error
}

// WatchDocumentServer is the server side of the WatchDocument stream.
type WatchDocumentServer interface {
	Send(*WatchDocumentResponse) error
	grpc.ServerStream
}

type watchDocumentServer struct {
	grpc.ServerStream
}

func (x *watchDocumentServer) Send(m *WatchDocumentResponse) error {
	return x.ServerStream.SendMsg(m)
}

// ServiceDesc is the grpc.ServiceDesc of the Scribe service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScribeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(AttachDocumentMethod, ScribeServiceServer.AttachDocument),
		unaryMethod(DetachDocumentMethod, ScribeServiceServer.DetachDocument),
		unaryMethod(PushOperationMethod, ScribeServiceServer.PushOperation),
		unaryMethod(GetSnapshotMethod, ScribeServiceServer.GetSnapshot),
		unaryMethod(ListOperationsMethod, ScribeServiceServer.ListOperations),
		unaryMethod(UpdatePresenceMethod, ScribeServiceServer.UpdatePresence),
		unaryMethod(ListDocumentsMethod, ScribeServiceServer.ListDocuments),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchDocument",
			Handler:       watchDocumentHandler,
			ServerStreams: true,
		},
	},
}

// RegisterScribeServiceServer registers the server on the given registrar.
func RegisterScribeServiceServer(s grpc.ServiceRegistrar, srv ScribeServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryMethod builds the descriptor of a unary method from the server method
// that implements it.
func unaryMethod[Req, Resp any](
	fullMethod string,
	call func(ScribeServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: fullMethod[len(ServiceName)+2:],
		Handler: func(
			srv interface{},
			ctx context.Context,
			dec func(interface{}) error,
			interceptor grpc.UnaryServerInterceptor,
		) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ScribeServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ScribeServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchDocumentHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WatchDocumentRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ScribeServiceServer).WatchDocument(m, &watchDocumentServer{stream})
}

// ScribeServiceClient is the client API of the Scribe service.
type ScribeServiceClient interface {
	AttachDocument(ctx context.Context, in *AttachDocumentRequest, opts ...grpc.CallOption) (*AttachDocumentResponse, error)
	DetachDocument(ctx context.Context, in *DetachDocumentRequest, opts ...grpc.CallOption) (*DetachDocumentResponse, error)
	PushOperation(ctx context.Context, in *PushOperationRequest, opts ...grpc.CallOption) (*PushOperationResponse, error)
	GetSnapshot(ctx context.Context, in *GetSnapshotRequest, opts ...grpc.CallOption) (*GetSnapshotResponse, error)
	ListOperations(ctx context.Context, in *ListOperationsRequest, opts ...grpc.CallOption) (*ListOperationsResponse, error)
	UpdatePresence(ctx context.Context, in *UpdatePresenceRequest, opts ...grpc.CallOption) (*UpdatePresenceResponse, error)
	ListDocuments(ctx context.Context, in *ListDocumentsRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error)
	WatchDocument(ctx context.Context, in *WatchDocumentRequest, opts ...grpc.CallOption) (WatchDocumentClient, error)
}

// WatchDocumentClient is the client side of the WatchDocument stream.
type WatchDocumentClient interface {
	Recv() (*WatchDocumentResponse, error)
	grpc.ClientStream
}

type watchDocumentClient struct {
	grpc.ClientStream
}

func (x *watchDocumentClient) Recv() (*WatchDocumentResponse, error) {
	m := new(WatchDocumentResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type scribeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewScribeServiceClient creates a client of the Scribe service. Calls are
// made with the JSON codec.
func NewScribeServiceClient(cc grpc.ClientConnInterface) ScribeServiceClient {
	return &scribeServiceClient{cc: cc}
}

func invoke[Resp any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in interface{},
	opts []grpc.CallOption,
) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *scribeServiceClient) AttachDocument(
	ctx context.Context,
	in *AttachDocumentRequest,
	opts ...grpc.CallOption,
) (*AttachDocumentResponse, error) {
	return invoke[AttachDocumentResponse](ctx, c.cc, AttachDocumentMethod, in, opts)
}

func (c *scribeServiceClient) DetachDocument(
	ctx context.Context,
	in *DetachDocumentRequest,
	opts ...grpc.CallOption,
) (*DetachDocumentResponse, error) {
	return invoke[DetachDocumentResponse](ctx, c.cc, DetachDocumentMethod, in, opts)
}

func (c *scribeServiceClient) PushOperation(
	ctx context.Context,
	in *PushOperationRequest,
	opts ...grpc.CallOption,
) (*PushOperationResponse, error) {
	return invoke[PushOperationResponse](ctx, c.cc, PushOperationMethod, in, opts)
}

func (c *scribeServiceClient) GetSnapshot(
	ctx context.Context,
	in *GetSnapshotRequest,
	opts ...grpc.CallOption,
) (*GetSnapshotResponse, error) {
	return invoke[GetSnapshotResponse](ctx, c.cc, GetSnapshotMethod, in, opts)
}

func (c *scribeServiceClient) ListOperations(
	ctx context.Context,
	in *ListOperationsRequest,
	opts ...grpc.CallOption,
) (*ListOperationsResponse, error) {
	return invoke[ListOperationsResponse](ctx, c.cc, ListOperationsMethod, in, opts)
}

func (c *scribeServiceClient) UpdatePresence(
	ctx context.Context,
	in *UpdatePresenceRequest,
	opts ...grpc.CallOption,
) (*UpdatePresenceResponse, error) {
	return invoke[UpdatePresenceResponse](ctx, c.cc, UpdatePresenceMethod, in, opts)
}

func (c *scribeServiceClient) ListDocuments(
	ctx context.Context,
	in *ListDocumentsRequest,
	opts ...grpc.CallOption,
) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c.cc, ListDocumentsMethod, in, opts)
}

func (c *scribeServiceClient) WatchDocument(
	ctx context.Context,
	in *WatchDocumentRequest,
	opts ...grpc.CallOption,
) (WatchDocumentClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchDocumentMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &watchDocumentClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
