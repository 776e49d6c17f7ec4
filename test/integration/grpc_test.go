package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcapi "github.com/lemonberrylabs/tinyscript/pkg/api/grpc"
)

// grpcEndpoint returns the gRPC endpoint address (host:port).
func grpcEndpoint() string {
	if ep := os.Getenv("TINYSCRIPT_GRPC_ENDPOINT"); ep != "" {
		return ep
	}
	return "localhost:8788"
}

func dialGRPC(t *testing.T) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(grpcEndpoint(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func invokeGRPC(t *testing.T, conn *grpc.ClientConn, method string, req map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// TestGRPC_Run runs a program over gRPC.
func TestGRPC_Run(t *testing.T) {
	conn := dialGRPC(t)

	out, err := invokeGRPC(t, conn, grpcapi.MethodRun, map[string]interface{}{"source": `var x = "a" + "b";`})
	require.NoError(t, err)
	b, _ := out["bindings"].(map[string]interface{})
	assert.Equal(t, "ab", b["x"])
}

// TestGRPC_ParseError verifies InvalidArgument with a Struct detail.
func TestGRPC_ParseError(t *testing.T) {
	conn := dialGRPC(t)

	_, err := invokeGRPC(t, conn, grpcapi.MethodParse, map[string]interface{}{"source": `var = 1;`})
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.InvalidArgument, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok, "unexpected detail %v", st.Details()[0])
	assert.Equal(t, "parse", detail.AsMap()["stage"])
}

// TestGRPC_RunSession shares a session between HTTP and gRPC.
func TestGRPC_RunSession(t *testing.T) {
	id := uniqueID("grpc")
	createSession(t, id, `var a = 20;`)
	conn := dialGRPC(t)

	out, err := invokeGRPC(t, conn, grpcapi.MethodRunSession, map[string]interface{}{"session": id, "source": `var b = a + 22;`})
	require.NoError(t, err)
	b, _ := out["bindings"].(map[string]interface{})
	assert.Equal(t, float64(42), b["b"])

	_, err = invokeGRPC(t, conn, grpcapi.MethodRunSession, map[string]interface{}{"session": id + "-missing", "source": ""})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
