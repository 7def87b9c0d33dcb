package blockrpc

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/storage"
)

// Client fetches blocks from a remote Blocks service. It also implements
// storage.CAS, so a remote node can sit behind a MultiCAS; only CAS writes
// of canonical block encodings are accepted by the server.
type Client struct {
	cc     *grpc.ClientConn
	client BlocksClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var (
	_ storage.CAS    = (*Client)(nil)
	_ storage.Closer = (*Client)(nil)
)

type DialOptions struct {
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

// Dial creates a client. The connection is established lazily.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewBlocksClient(cc), Timeout: opts.Timeout}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// GetBlock fetches, decodes and re-hashes a block.
func (c *Client) GetBlock(ctx context.Context, id skipchain.BlockID) (*skipchain.Block, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.GetBlock(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b, err := skipchain.DecodeBlock(reply.GetValue())
	if err != nil {
		return nil, err
	}
	if b.Hash() != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

// PutBlock uploads b and checks the id the server reports.
func (c *Client) PutBlock(ctx context.Context, b *skipchain.Block) (skipchain.BlockID, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.PutBlock(ctx, wrapperspb.Bytes(b.Encode()))
	if err != nil {
		return skipchain.BlockID{}, mapRPC(err)
	}
	id, err := skipchain.BlockIDFromHex(reply.GetValue())
	if err != nil {
		return skipchain.BlockID{}, storage.ErrInvalidCID
	}
	if id != b.Hash() {
		return skipchain.BlockID{}, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) HasBlock(ctx context.Context, id skipchain.BlockID) (bool, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.HasBlock(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Put(data []byte) (cid.Cid, error) {
	b, err := skipchain.DecodeBlock(data)
	if err != nil {
		return cid.Undef, err
	}
	id, err := c.PutBlock(context.Background(), b)
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.FromSHA256(id)
}

func (c *Client) Get(id cid.Cid) ([]byte, error) {
	digest, err := cidutil.SHA256Digest(id)
	if err != nil {
		return nil, storage.ErrInvalidCID
	}
	b, err := c.GetBlock(context.Background(), skipchain.BlockID(digest))
	if err != nil {
		return nil, err
	}
	return b.Encode(), nil
}

func (c *Client) Has(id cid.Cid) bool {
	digest, err := cidutil.SHA256Digest(id)
	if err != nil {
		return false
	}
	ok, err := c.HasBlock(context.Background(), skipchain.BlockID(digest))
	return err == nil && ok
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	default:
		return err
	}
}
