package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the ledger service
const ServiceName = "partio.v1.LedgerService"

// LedgerServer is the server API for the ledger service. Every method takes
// and returns a google.protobuf.Struct holding the JSON form of its DTO.
type LedgerServer interface {
	CalculateSplits(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateGroup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGroups(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteGroup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateExpense(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateExpense(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteExpense(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListExpenses(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalances(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSettlements(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type ledgerMethod func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// LedgerServiceDesc describes the ledger service for grpc.Server.RegisterService
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CalculateSplits", LedgerServer.CalculateSplits),
		unaryMethod("CreateGroup", LedgerServer.CreateGroup),
		unaryMethod("ListGroups", LedgerServer.ListGroups),
		unaryMethod("AddMember", LedgerServer.AddMember),
		unaryMethod("DeleteGroup", LedgerServer.DeleteGroup),
		unaryMethod("CreateExpense", LedgerServer.CreateExpense),
		unaryMethod("UpdateExpense", LedgerServer.UpdateExpense),
		unaryMethod("DeleteExpense", LedgerServer.DeleteExpense),
		unaryMethod("ListExpenses", LedgerServer.ListExpenses),
		unaryMethod("GetBalances", LedgerServer.GetBalances),
		unaryMethod("GetSettlements", LedgerServer.GetSettlements),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "partio/v1/ledger.proto",
}

// RegisterLedgerServer registers srv on the gRPC service registrar
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func unaryMethod(name string, call ledgerMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(LedgerServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
