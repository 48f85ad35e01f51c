package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "github.com/ppiankov/cellwatch/api/cellwatch/v1"
	"github.com/ppiankov/cellwatch/internal/controller"
)

const callTimeout = 5 * time.Second

// Client connects to a cellwatch gRPC controller server.
type Client struct {
	conn   *grpc.ClientConn
	client pb.CellControllerClient
}

// Result is the server's answer to one order.
type Result struct {
	OrderID   string              `json:"order_id"`
	State     controller.Snapshot `json:"state"`
	Length    int                 `json:"length"`
	Oversized bool                `json:"oversized"`
	Applied   int                 `json:"applied"`
	Ignored   int                 `json:"ignored"`
}

// failClosed is reported whenever the controller state cannot be read: no
// motion permitted, e-stop not acknowledged, state untrusted.
var failClosed = controller.Snapshot{Compromised: true}

// New creates a gRPC client connected to the given address.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to controller: %w", err)
	}
	return &Client{
		conn:   conn,
		client: pb.NewCellControllerClient(conn),
	}, nil
}

// ApplyOrder sends an order to the remote controller.
func (c *Client) ApplyOrder(order string) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	resp, err := c.client.ApplyOrder(ctx, wrapperspb.String(order))
	if err != nil {
		return Result{State: failClosed}, fmt.Errorf("apply order: %w", err)
	}
	st, err := snapshotFrom(resp)
	if err != nil {
		return Result{State: failClosed}, err
	}
	f := resp.GetFields()
	return Result{
		OrderID:   f[pb.FieldOrderID].GetStringValue(),
		State:     st,
		Length:    int(f[pb.FieldLength].GetNumberValue()),
		Oversized: f[pb.FieldOversized].GetBoolValue(),
		Applied:   int(f[pb.FieldApplied].GetNumberValue()),
		Ignored:   int(f[pb.FieldIgnored].GetNumberValue()),
	}, nil
}

// Reset restores the remote controller's power-on state.
func (c *Client) Reset() (controller.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	resp, err := c.client.Reset(ctx, &emptypb.Empty{})
	if err != nil {
		return failClosed, fmt.Errorf("reset: %w", err)
	}
	return snapshotFrom(resp)
}

// State reads the remote controller state.
// Fail-closed: on any error the returned snapshot permits nothing and is
// marked compromised.
func (c *Client) State() (controller.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	resp, err := c.client.GetState(ctx, &emptypb.Empty{})
	if err != nil {
		return failClosed, fmt.Errorf("controller unreachable: %w", err)
	}
	return snapshotFrom(resp)
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func snapshotFrom(st *structpb.Struct) (controller.Snapshot, error) {
	s, err := pb.StateFromStruct(st)
	if err != nil {
		return failClosed, err
	}
	return controller.Snapshot{
		ConveyorRun:  s.ConveyorRun,
		EmergencyOK:  s.EmergencyOK,
		QualityScore: s.QualityScore,
		Compromised:  s.Compromised,
	}, nil
}
