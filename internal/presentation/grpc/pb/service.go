// Package pb shopeconomy.v1 のサービス定義
//
// メッセージはすべて google.protobuf.Struct で表現し、フィールド名はREST APIのJSONと揃える。
// 生成コードを使わず grpc.ServiceDesc を直接組み立てる。
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// PlayerServiceName プレイヤー向けサービス（JWT認証）
	PlayerServiceName = "shopeconomy.v1.PlayerService"
	// AdminServiceName ホスト向けサービス（APIキー認証）
	AdminServiceName = "shopeconomy.v1.AdminService"
)

// PlayerServiceServer プレイヤー向けサービス
type PlayerServiceServer interface {
	GetEffectivePrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetPriceList(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Purchase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Sell(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetFunds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// AdminServiceServer ホスト向けサービス
type AdminServiceServer interface {
	IssueToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GrantFunds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

	GetOrCreateShop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListShops(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteShop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

	CreateSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	EditSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	EnableSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DisableSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	RemoveSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListSpecials(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PreviewSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PreviewDraft(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

	GetShopHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

	SaveGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	LoadGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListSaves(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteSave(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

	GetDevMenu(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	InvokeDevMenu(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPlayerServiceServer サービスを登録
func RegisterPlayerServiceServer(s grpc.ServiceRegistrar, srv PlayerServiceServer) {
	s.RegisterService(&PlayerService_ServiceDesc, srv)
}

// RegisterAdminServiceServer サービスを登録
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

// PlayerService_ServiceDesc プレイヤー向けサービスの記述子
var PlayerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PlayerServiceName,
	HandlerType: (*PlayerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(PlayerServiceName, "GetEffectivePrice", PlayerServiceServer.GetEffectivePrice),
		unary(PlayerServiceName, "GetPriceList", PlayerServiceServer.GetPriceList),
		unary(PlayerServiceName, "Purchase", PlayerServiceServer.Purchase),
		unary(PlayerServiceName, "Sell", PlayerServiceServer.Sell),
		unary(PlayerServiceName, "GetFunds", PlayerServiceServer.GetFunds),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopeconomy/v1/shop_economy.proto",
}

// AdminService_ServiceDesc ホスト向けサービスの記述子
var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AdminServiceName, "IssueToken", AdminServiceServer.IssueToken),
		unary(AdminServiceName, "GrantFunds", AdminServiceServer.GrantFunds),
		unary(AdminServiceName, "GetOrCreateShop", AdminServiceServer.GetOrCreateShop),
		unary(AdminServiceName, "ListShops", AdminServiceServer.ListShops),
		unary(AdminServiceName, "DeleteShop", AdminServiceServer.DeleteShop),
		unary(AdminServiceName, "CreateSpecial", AdminServiceServer.CreateSpecial),
		unary(AdminServiceName, "EditSpecial", AdminServiceServer.EditSpecial),
		unary(AdminServiceName, "EnableSpecial", AdminServiceServer.EnableSpecial),
		unary(AdminServiceName, "DisableSpecial", AdminServiceServer.DisableSpecial),
		unary(AdminServiceName, "RemoveSpecial", AdminServiceServer.RemoveSpecial),
		unary(AdminServiceName, "ListSpecials", AdminServiceServer.ListSpecials),
		unary(AdminServiceName, "PreviewSpecial", AdminServiceServer.PreviewSpecial),
		unary(AdminServiceName, "PreviewDraft", AdminServiceServer.PreviewDraft),
		unary(AdminServiceName, "GetShopHistory", AdminServiceServer.GetShopHistory),
		unary(AdminServiceName, "SaveGame", AdminServiceServer.SaveGame),
		unary(AdminServiceName, "LoadGame", AdminServiceServer.LoadGame),
		unary(AdminServiceName, "ListSaves", AdminServiceServer.ListSaves),
		unary(AdminServiceName, "DeleteSave", AdminServiceServer.DeleteSave),
		unary(AdminServiceName, "GetDevMenu", AdminServiceServer.GetDevMenu),
		unary(AdminServiceName, "InvokeDevMenu", AdminServiceServer.InvokeDevMenu),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopeconomy/v1/shop_economy.proto",
}

// unary メソッド式からMethodDescを組み立てる
func unary[S any](service, method string, call func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(S), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client サービスを呼び出すクライアント
type Client struct {
	cc      grpc.ClientConnInterface
	service string
}

// NewPlayerServiceClient プレイヤー向けサービスのクライアントを作成
func NewPlayerServiceClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, service: PlayerServiceName}
}

// NewAdminServiceClient ホスト向けサービスのクライアントを作成
func NewAdminServiceClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, service: AdminServiceName}
}

// Call メソッドを呼び出す
func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(c.service, method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// FullMethod サービス名とメソッド名からgRPCのフルメソッド名を作る
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}
