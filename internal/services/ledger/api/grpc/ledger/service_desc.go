package ledger

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rbacledger.v1.LedgerService"

// LedgerServer is the server API for LedgerService.
type LedgerServer interface {
	Mint(context.Context, *MintRequest) (*CommandResponse, error)
	Burn(context.Context, *BurnRequest) (*CommandResponse, error)
	Pause(context.Context, *CallerRequest) (*CommandResponse, error)
	Unpause(context.Context, *CallerRequest) (*CommandResponse, error)
	EmergencyPause(context.Context, *CallerRequest) (*CommandResponse, error)
	ViewSensitiveStats(context.Context, *CallerRequest) (*CommandResponse, error)
	ExecuteTransfer(context.Context, *ExecuteTransferRequest) (*CommandResponse, error)
	BatchMint(context.Context, *BatchRequest) (*CommandResponse, error)
	BatchBurn(context.Context, *BatchRequest) (*CommandResponse, error)
	ProposeTransfer(context.Context, *ProposeTransferRequest) (*CommandResponse, error)
	ApproveTransfer(context.Context, *TransferRequest) (*CommandResponse, error)
	ViewPendingTransfer(context.Context, *TransferRequest) (*CommandResponse, error)
	OwnerPing(context.Context, *CallerRequest) (*CommandResponse, error)
	AdminPing(context.Context, *CallerRequest) (*CommandResponse, error)

	BalanceOf(context.Context, *BalanceRequest) (*BalanceResponse, error)
	GetStatus(context.Context, *Empty) (*StatusResponse, error)
	ListRoleMembers(context.Context, *RoleMembersRequest) (*RoleMembersResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)

	GrantRole(context.Context, *RoleRequest) (*Empty, error)
	RevokeRole(context.Context, *RoleRequest) (*Empty, error)
	RenounceRole(context.Context, *RoleRequest) (*Empty, error)
	GetOwner(context.Context, *Empty) (*OwnerResponse, error)
	TransferOwnership(context.Context, *TransferOwnershipRequest) (*Empty, error)
	AcceptOwnership(context.Context, *CallerRequest) (*Empty, error)
	RenounceOwnership(context.Context, *CallerRequest) (*Empty, error)
}

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](name string, call func(LedgerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes LedgerService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Mint", LedgerServer.Mint),
		unary("Burn", LedgerServer.Burn),
		unary("Pause", LedgerServer.Pause),
		unary("Unpause", LedgerServer.Unpause),
		unary("EmergencyPause", LedgerServer.EmergencyPause),
		unary("ViewSensitiveStats", LedgerServer.ViewSensitiveStats),
		unary("ExecuteTransfer", LedgerServer.ExecuteTransfer),
		unary("BatchMint", LedgerServer.BatchMint),
		unary("BatchBurn", LedgerServer.BatchBurn),
		unary("ProposeTransfer", LedgerServer.ProposeTransfer),
		unary("ApproveTransfer", LedgerServer.ApproveTransfer),
		unary("ViewPendingTransfer", LedgerServer.ViewPendingTransfer),
		unary("OwnerPing", LedgerServer.OwnerPing),
		unary("AdminPing", LedgerServer.AdminPing),
		unary("BalanceOf", LedgerServer.BalanceOf),
		unary("GetStatus", LedgerServer.GetStatus),
		unary("ListRoleMembers", LedgerServer.ListRoleMembers),
		unary("ListEvents", LedgerServer.ListEvents),
		unary("GrantRole", LedgerServer.GrantRole),
		unary("RevokeRole", LedgerServer.RevokeRole),
		unary("RenounceRole", LedgerServer.RenounceRole),
		unary("GetOwner", LedgerServer.GetOwner),
		unary("TransferOwnership", LedgerServer.TransferOwnership),
		unary("AcceptOwnership", LedgerServer.AcceptOwnership),
		unary("RenounceOwnership", LedgerServer.RenounceOwnership),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbacledger/v1/ledger",
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
