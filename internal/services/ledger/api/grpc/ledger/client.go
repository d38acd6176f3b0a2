package ledger

import (
	"context"

	"google.golang.org/grpc"

	"github.com/louisbranch/rbac-ledger/internal/platform/grpc/codec"
)

// Client calls LedgerService over the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{codec.CallOption()}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Mint(ctx context.Context, in *MintRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "Mint", in, opts)
}

func (c *Client) Burn(ctx context.Context, in *BurnRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "Burn", in, opts)
}

func (c *Client) Pause(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "Pause", in, opts)
}

func (c *Client) Unpause(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "Unpause", in, opts)
}

func (c *Client) EmergencyPause(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "EmergencyPause", in, opts)
}

func (c *Client) ViewSensitiveStats(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "ViewSensitiveStats", in, opts)
}

func (c *Client) ExecuteTransfer(ctx context.Context, in *ExecuteTransferRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "ExecuteTransfer", in, opts)
}

func (c *Client) BatchMint(ctx context.Context, in *BatchRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "BatchMint", in, opts)
}

func (c *Client) BatchBurn(ctx context.Context, in *BatchRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "BatchBurn", in, opts)
}

func (c *Client) ProposeTransfer(ctx context.Context, in *ProposeTransferRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "ProposeTransfer", in, opts)
}

func (c *Client) ApproveTransfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "ApproveTransfer", in, opts)
}

func (c *Client) ViewPendingTransfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "ViewPendingTransfer", in, opts)
}

func (c *Client) OwnerPing(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "OwnerPing", in, opts)
}

func (c *Client) AdminPing(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*CommandResponse, error) {
	return invoke[CommandResponse](ctx, c.cc, "AdminPing", in, opts)
}

func (c *Client) BalanceOf(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, "BalanceOf", in, opts)
}

func (c *Client) GetStatus(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "GetStatus", in, opts)
}

func (c *Client) ListRoleMembers(ctx context.Context, in *RoleMembersRequest, opts ...grpc.CallOption) (*RoleMembersResponse, error) {
	return invoke[RoleMembersResponse](ctx, c.cc, "ListRoleMembers", in, opts)
}

func (c *Client) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.cc, "ListEvents", in, opts)
}

func (c *Client) GrantRole(ctx context.Context, in *RoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "GrantRole", in, opts)
}

func (c *Client) RevokeRole(ctx context.Context, in *RoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "RevokeRole", in, opts)
}

func (c *Client) RenounceRole(ctx context.Context, in *RoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "RenounceRole", in, opts)
}

func (c *Client) GetOwner(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*OwnerResponse, error) {
	return invoke[OwnerResponse](ctx, c.cc, "GetOwner", in, opts)
}

func (c *Client) TransferOwnership(ctx context.Context, in *TransferOwnershipRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "TransferOwnership", in, opts)
}

func (c *Client) AcceptOwnership(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "AcceptOwnership", in, opts)
}

func (c *Client) RenounceOwnership(ctx context.Context, in *CallerRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "RenounceOwnership", in, opts)
}
