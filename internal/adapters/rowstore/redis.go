package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// RedisGrid keeps a sheet in Redis: the header as a list, a row counter, and
// one list per data row. It lets several tracker instances share a sheet
// without a spreadsheet account.
type RedisGrid struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisGrid addresses the sheet stored under prefix.
func NewRedisGrid(client redis.UniversalClient, prefix string) *RedisGrid {
	return &RedisGrid{client: client, prefix: prefix}
}

func (g *RedisGrid) headerKey() string { return g.prefix + ":header" }
func (g *RedisGrid) countKey() string  { return g.prefix + ":rows" }
func (g *RedisGrid) rowKey(n int) string {
	return g.prefix + ":row:" + strconv.Itoa(n)
}

func (g *RedisGrid) rowCount(ctx context.Context) (int, error) {
	n, err := g.client.Get(ctx, g.countKey()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (g *RedisGrid) Values(ctx context.Context) ([][]string, error) {
	const op = "redis.values"
	header, err := g.client.LRange(ctx, g.headerKey(), 0, -1).Result()
	if err != nil {
		return nil, redisError(op, err)
	}
	if len(header) == 0 {
		return nil, nil
	}
	count, err := g.rowCount(ctx)
	if err != nil {
		return nil, redisError(op, err)
	}

	cmds := make([]*redis.StringSliceCmd, count)
	if count > 0 {
		_, err = g.client.Pipelined(ctx, func(p redis.Pipeliner) error {
			for i := range cmds {
				cmds[i] = p.LRange(ctx, g.rowKey(i+1), 0, -1)
			}
			return nil
		})
		if err != nil {
			return nil, redisError(op, err)
		}
	}

	out := make([][]string, 0, count+1)
	out = append(out, header)
	for _, cmd := range cmds {
		out = append(out, cmd.Val())
	}
	return out, nil
}

func (g *RedisGrid) Header(ctx context.Context) ([]string, error) {
	header, err := g.client.LRange(ctx, g.headerKey(), 0, -1).Result()
	if err != nil {
		return nil, redisError("redis.header", err)
	}
	return header, nil
}

// Append writes the header when the sheet has none, otherwise a new data row.
func (g *RedisGrid) Append(ctx context.Context, row []string) error {
	const op = "redis.append"
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}

	n, err := g.client.LLen(ctx, g.headerKey()).Result()
	if err != nil {
		return redisError(op, err)
	}
	if n == 0 {
		if len(values) == 0 {
			return ticket.WrapKind(op, ticket.ErrRemoteRejected, ErrNoHeader)
		}
		return redisError(op, g.client.RPush(ctx, g.headerKey(), values...).Err())
	}

	idx, err := g.client.Incr(ctx, g.countKey()).Result()
	if err != nil {
		return redisError(op, err)
	}
	if len(values) == 0 {
		return nil
	}
	return redisError(op, g.client.RPush(ctx, g.rowKey(int(idx)), values...).Err())
}

func (g *RedisGrid) SetCell(ctx context.Context, row, col int, value string) error {
	const op = "redis.set_cell"
	if row < 1 || col < 0 {
		return ticket.WrapKind(op, ticket.ErrRemoteRejected,
			fmt.Errorf("%w: %s", ErrRowOutOfRange, CellRef(row, col)))
	}
	key := g.headerKey()
	if row > 1 {
		count, err := g.rowCount(ctx)
		if err != nil {
			return redisError(op, err)
		}
		if row-1 > count {
			return ticket.WrapKind(op, ticket.ErrRemoteRejected,
				fmt.Errorf("%w: %s", ErrRowOutOfRange, CellRef(row, col)))
		}
		key = g.rowKey(row - 1)
	}

	length, err := g.client.LLen(ctx, key).Result()
	if err != nil {
		return redisError(op, err)
	}
	if int64(col) < length {
		return redisError(op, g.client.LSet(ctx, key, int64(col), value).Err())
	}
	pad := make([]any, 0, col-int(length)+1)
	for i := int(length); i < col; i++ {
		pad = append(pad, "")
	}
	pad = append(pad, value)
	return redisError(op, g.client.RPush(ctx, key, pad...).Err())
}

// redisError classifies go-redis failures. Server replies about bad indexes
// are rejections; everything else is treated as the store being unreachable.
func redisError(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "index out of range") || strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return ticket.WrapKind(op, ticket.ErrRemoteRejected, err)
	}
	return ticket.WrapKind(op, ticket.ErrRemoteUnavailable, err)
}
