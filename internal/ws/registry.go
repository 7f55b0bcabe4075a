package ws

import (
	"context"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/twmb/murmur3"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"
)

const (
	registryShards = 16
	presenceTTL    = 5 * time.Minute
)

// Registry is the in-process map from user identity to that user's live
// connections. A user may hold several at once (multiple devices or tabs).
// State is not persisted: after a restart every client re-authenticates and
// re-registers. Shards keyed by a murmur3 hash of the user ID keep
// connect/disconnect bursts from contending on one lock.
//
// When a Redis client is supplied the registry also maintains presence
// marks (presence:user:<id> -> nodeID, TTL'd) so other parts of the
// platform can see who is online. Presence is advisory; the registry works
// without it.
type Registry struct {
	shards [registryShards]registryShard

	redis  *redis.Client
	nodeID string
	log    *logger.Logger
}

type registryShard struct {
	mu     sync.RWMutex
	byUser map[uint]map[string]*Client
}

func NewRegistry(redisClient *redis.Client, nodeID string, log *logger.Logger) *Registry {
	r := &Registry{
		redis:  redisClient,
		nodeID: nodeID,
		log:    log,
	}
	for i := range r.shards {
		r.shards[i].byUser = make(map[uint]map[string]*Client)
	}
	return r
}

func (r *Registry) shardFor(userID uint) *registryShard {
	h := murmur3.Sum32([]byte(strconv.FormatUint(uint64(userID), 10)))
	return &r.shards[h%registryShards]
}

// Register binds a connection to its user. Multiple connections per user
// are expected; each is tracked by its connection ID.
func (r *Registry) Register(c *Client) {
	shard := r.shardFor(c.userID)
	shard.mu.Lock()
	conns, ok := shard.byUser[c.userID]
	if !ok {
		conns = make(map[string]*Client)
		shard.byUser[c.userID] = conns
	}
	conns[c.connID] = c
	count := len(conns)
	shard.mu.Unlock()

	r.log.Debug("connection registered",
		zap.Uint("user_id", c.userID),
		zap.String("conn_id", c.connID),
		zap.Int("user_connections", count),
	)

	if r.redis != nil {
		key := presenceKey(c.userID)
		if err := r.redis.Set(context.Background(), key, r.nodeID, presenceTTL).Err(); err != nil {
			r.log.Warn("failed to set presence mark", zap.Uint("user_id", c.userID), zap.Error(err))
		}
	}
}

// Unregister removes a connection. When the user's last connection goes,
// the user entry is dropped entirely and the presence mark deleted.
func (r *Registry) Unregister(c *Client) {
	shard := r.shardFor(c.userID)
	shard.mu.Lock()
	var remaining int
	if conns, ok := shard.byUser[c.userID]; ok {
		delete(conns, c.connID)
		remaining = len(conns)
		if remaining == 0 {
			delete(shard.byUser, c.userID)
		}
	}
	shard.mu.Unlock()

	r.log.Debug("connection unregistered",
		zap.Uint("user_id", c.userID),
		zap.String("conn_id", c.connID),
		zap.Int("user_connections", remaining),
	)

	if remaining == 0 && r.redis != nil {
		if err := r.redis.Del(context.Background(), presenceKey(c.userID)).Err(); err != nil {
			r.log.Warn("failed to clear presence mark", zap.Uint("user_id", c.userID), zap.Error(err))
		}
	}
}

// ConnectionsFor returns a snapshot of the user's live connections.
func (r *Registry) ConnectionsFor(userID uint) []*Client {
	shard := r.shardFor(userID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	conns := shard.byUser[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Touch refreshes the presence TTL. Called from the pong handler.
func (r *Registry) Touch(userID uint) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Expire(context.Background(), presenceKey(userID), presenceTTL).Err(); err != nil {
		r.log.Warn("failed to refresh presence mark", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// Count returns the total number of registered connections.
func (r *Registry) Count() int {
	total := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		for _, conns := range r.shards[i].byUser {
			total += len(conns)
		}
		r.shards[i].mu.RUnlock()
	}
	return total
}

func presenceKey(userID uint) string {
	return "presence:user:" + strconv.FormatUint(uint64(userID), 10)
}
