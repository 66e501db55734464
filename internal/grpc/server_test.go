package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"railbite/internal/auth"
	"railbite/internal/service"
	"railbite/internal/testutil"
	"railbite/repository"
)

const secret = "ops-secret"

func startOps(t *testing.T) (*Server, *grpc.ClientConn, func()) {
	t.Helper()
	db := testutil.OpenInMemoryDB(t, "grpc_"+t.Name())
	svc := service.New(service.Deps{
		Store:     repository.NewStore(db),
		Hasher:    auth.NewBcrypt(4),
		Log:       zap.NewNop(),
		JWTSecret: secret,
		TokenTTL:  time.Hour,
	})
	srv := New(Options{JWTSecret: secret, Services: svc, DB: db, HealthInterval: time.Hour})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	closeDB := func() { _ = db.Close() }
	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, conn, closeDB
}

func withToken(t *testing.T, userID int64, role string) context.Context {
	tok := testutil.GenerateJWTHS256(t, secret, userID, "ops", role)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := conn.Invoke(ctx, "/"+opsServiceName+"/"+method, in, out)
	return out, err
}

func TestHealthIsPublicAndTracksDatabase(t *testing.T) {
	srv, conn, closeDB := startOps(t)
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	closeDB()
	srv.checkDatabase(context.Background())
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: opsServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestOpsRequiresAdmin(t *testing.T) {
	_, conn, _ := startOps(t)
	empty := &structpb.Struct{}

	_, err := invoke(context.Background(), conn, "SalesReport", empty)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = invoke(withToken(t, 7, "customer"), conn, "SalesReport", empty)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = invoke(withToken(t, 8, "delivery"), conn, "AvailableStaff", empty)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestSalesReportAndStaffBoard(t *testing.T) {
	_, conn, _ := startOps(t)
	ctx := withToken(t, 1, "admin")

	out, err := invoke(ctx, conn, "SalesReport", &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out.GetFields()["total_orders"].GetNumberValue())
	assert.Contains(t, out.GetFields(), "top_items")

	in, err := structpb.NewStruct(map[string]any{"from": "2026-01-10", "to": "2026-01-01"})
	require.NoError(t, err)
	_, err = invoke(ctx, conn, "SalesReport", in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	in, err = structpb.NewStruct(map[string]any{"from": "last week"})
	require.NoError(t, err)
	_, err = invoke(ctx, conn, "SalesReport", in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err = invoke(ctx, conn, "AvailableStaff", &structpb.Struct{})
	require.NoError(t, err)
	assert.Contains(t, out.GetFields(), "staff")
}

func TestToStatusMapsKinds(t *testing.T) {
	assert.Equal(t, codes.NotFound, status.Code(toStatus(service.ErrOrderNotFound)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toStatus(service.ErrCannotCancel)))
	assert.Equal(t, codes.AlreadyExists, status.Code(toStatus(service.ErrEmailTaken)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(context.DeadlineExceeded)))
}
