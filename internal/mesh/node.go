package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/hashicorp/memberlist"
	"golang.org/x/time/rate"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/telemetry/logger"
	"github.com/yndnr/meshterm/internal/telemetry/metric"
)

// Gossip profiles select the memberlist timing defaults.
const (
	ProfileLAN   = "lan"
	ProfileWAN   = "wan"
	ProfileLocal = "local"
)

// Defaults for Config.
const (
	DefaultSeenCacheSize = 4096
	DefaultUpdateTimeout = 2 * time.Second
	DefaultLeaveTimeout  = time.Second
)

// Receive dispositions recorded in metrics.
const (
	dispDelivered = "delivered"
	dispAcked     = "acked"
	dispRelayed   = "relayed"
	dispDuplicate = "duplicate"
	dispExpired   = "expired"
	dispMalformed = "malformed"
)

// Config configures a Node.
type Config struct {
	// NodeID is the unique member name in the gossip cluster.
	NodeID string

	// BindAddr and BindPort are the gossip listen address. Port 0 picks a free port.
	BindAddr string
	BindPort int

	// AdvertiseAddr and AdvertisePort override the address announced to peers.
	AdvertiseAddr string
	AdvertisePort int

	// Seeds are host:port gossip addresses joined by Join and StartDiscovery.
	Seeds []string

	// Profile is one of ProfileLAN (default), ProfileWAN, ProfileLocal.
	Profile string

	// SecretKey enables AES encryption of gossip traffic (16, 24 or 32 bytes).
	SecretKey []byte

	Role  domain.Role
	Debug domain.DebugMode

	// SendRate limits operator-originated messages per second; 0 disables the limit.
	SendRate  float64
	SendBurst int

	// SeenCacheSize bounds the duplicate-suppression cache.
	SeenCacheSize int

	Logger  *slog.Logger
	Metrics *metric.Registry
}

// peer is a live gossip member other than the local node.
type peer struct {
	node *memberlist.Node
	meta nodeMeta
}

// nodeMeta is advertised through memberlist node metadata.
type nodeMeta struct {
	Addr domain.MAC  `json:"addr"`
	Role domain.Role `json:"role"`
}

// Node is a mesh node backed by a memberlist gossip cluster.
type Node struct {
	cfg       Config
	ml        *memberlist.Memberlist
	logger    *slog.Logger
	logWriter *logger.Writer
	metrics   *metric.Registry
	limiter   *rate.Limiter
	ids       *idSource
	seen      *lru.Cache
	addr      domain.MAC
	started   time.Time

	mu        sync.Mutex
	role      domain.Role
	debug     domain.DebugMode
	peers     map[string]peer
	waiters   map[string]chan struct{}
	onMessage func(Message)
	shutdown  bool

	sent     atomic.Uint64
	received atomic.Uint64
	relayed  atomic.Uint64
}

// New creates a node and starts its gossip listener. It does not join any
// seed; call Join or StartDiscovery for that.
func New(cfg Config) (*Node, error) {
	if cfg.NodeID == "" {
		return nil, errors.New("mesh: node id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Role == "" {
		cfg.Role = domain.RoleNode
	}
	if cfg.Debug == "" {
		cfg.Debug = domain.DebugOff
	}
	if cfg.SeenCacheSize <= 0 {
		cfg.SeenCacheSize = DefaultSeenCacheSize
	}

	seen, err := lru.New(cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
		if cfg.SendBurst <= 0 {
			cfg.SendBurst = 1
		}
	}

	log := cfg.Logger.With("component", "mesh", "node_id", cfg.NodeID)
	n := &Node{
		cfg:       cfg,
		logger:    log,
		logWriter: logger.NewWriter(log.With("source", "memberlist"), cfg.Debug != domain.DebugVerbose),
		metrics:   cfg.Metrics,
		limiter:   rate.NewLimiter(limit, cfg.SendBurst),
		ids:       newIDSource(),
		seen:      seen,
		addr:      AddressFor(cfg.NodeID),
		started:   time.Now(),
		role:      cfg.Role,
		debug:     cfg.Debug,
		peers:     make(map[string]peer),
		waiters:   make(map[string]chan struct{}),
	}

	mlConfig := profileConfig(cfg.Profile)
	mlConfig.Name = cfg.NodeID
	if cfg.BindAddr != "" {
		mlConfig.BindAddr = cfg.BindAddr
	}
	mlConfig.BindPort = cfg.BindPort
	if cfg.AdvertiseAddr != "" {
		mlConfig.AdvertiseAddr = cfg.AdvertiseAddr
		mlConfig.AdvertisePort = cfg.AdvertisePort
	}
	mlConfig.SecretKey = cfg.SecretKey
	mlConfig.Delegate = &delegate{node: n}
	mlConfig.Events = &eventDelegate{node: n}
	mlConfig.LogOutput = n.logWriter

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}
	n.ml = ml

	local := ml.LocalNode()
	n.logger.Info("mesh node started",
		"addr", n.addr.String(),
		"gossip_addr", net.JoinHostPort(local.Addr.String(), fmt.Sprintf("%d", local.Port)),
		"role", n.cfg.Role)
	return n, nil
}

func profileConfig(profile string) *memberlist.Config {
	switch profile {
	case ProfileWAN:
		return memberlist.DefaultWANConfig()
	case ProfileLocal:
		return memberlist.DefaultLocalConfig()
	default:
		return memberlist.DefaultLANConfig()
	}
}

// Addr returns the local mesh address.
func (n *Node) Addr() domain.MAC {
	return n.addr
}

// GossipAddr returns the host:port other nodes use as a seed.
func (n *Node) GossipAddr() string {
	local := n.ml.LocalNode()
	return net.JoinHostPort(local.Addr.String(), fmt.Sprintf("%d", local.Port))
}

// OnMessage registers the callback for payloads delivered to this node.
// It runs on a memberlist goroutine and must not block.
func (n *Node) OnMessage(fn func(Message)) {
	n.mu.Lock()
	n.onMessage = fn
	n.mu.Unlock()
}

// Join contacts the given seeds, or the configured seeds when none are
// given, and returns how many were reached.
func (n *Node) Join(seeds ...string) (int, error) {
	if len(seeds) == 0 {
		seeds = n.cfg.Seeds
	}
	if len(seeds) == 0 {
		return 0, nil
	}
	joined, err := n.ml.Join(seeds)
	if err != nil {
		return joined, fmt.Errorf("join seeds: %w", err)
	}
	n.logger.Info("joined mesh", "seeds", seeds, "joined_count", joined)
	return joined, nil
}

// StartDiscovery joins the configured seeds in the background.
func (n *Node) StartDiscovery(_ context.Context) error {
	if len(n.cfg.Seeds) == 0 {
		n.logger.Info("discovery requested without seeds, waiting for peers to join")
		return nil
	}
	go func() {
		if _, err := n.Join(); err != nil {
			n.logger.Warn("discovery failed", "error", err)
		}
	}()
	return nil
}

// Neighbors returns the live peers sorted by node ID.
func (n *Node) Neighbors() []Neighbor {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Neighbor, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, Neighbor{
			Addr:     p.meta.Addr,
			NodeID:   p.node.Name,
			Role:     p.meta.Role,
			Endpoint: net.JoinHostPort(p.node.Addr.String(), fmt.Sprintf("%d", p.node.Port)),
			State:    stateName(p.node.State),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

func stateName(s memberlist.NodeStateType) string {
	switch s {
	case memberlist.StateAlive:
		return "alive"
	case memberlist.StateSuspect:
		return "suspect"
	case memberlist.StateDead:
		return "dead"
	case memberlist.StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Send originates a best-effort message. The broadcast address floods the mesh.
func (n *Node) Send(dst domain.MAC, payload []byte, ttl uint8) error {
	if err := n.admit(ttl); err != nil {
		n.metrics.RecordSend(string(KindData), err)
		return err
	}
	_, err := n.originate(KindData, dst, payload, ttl, "")
	n.metrics.RecordSend(string(KindData), err)
	return err
}

// SendReliable originates a message and waits until the destination
// acknowledges it or ctx is done.
func (n *Node) SendReliable(ctx context.Context, dst domain.MAC, payload []byte, ttl uint8) error {
	err := n.sendReliable(ctx, dst, payload, ttl)
	n.metrics.RecordSend(string(KindDataAckReq), err)
	return err
}

func (n *Node) sendReliable(ctx context.Context, dst domain.MAC, payload []byte, ttl uint8) error {
	if dst.IsBroadcast() {
		return domain.ErrNoRoute.WithDetails("reliable delivery needs a unicast address")
	}
	if err := n.admit(ttl); err != nil {
		return err
	}

	id, err := n.ids.next()
	if err != nil {
		return domain.ErrSendFailed.WithCause(err)
	}
	ack := make(chan struct{})
	n.mu.Lock()
	n.waiters[id] = ack
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.waiters, id)
		n.mu.Unlock()
	}()

	env := &Envelope{ID: id, Kind: KindDataAckReq, Src: n.addr, Dst: dst, TTL: ttl, Payload: payload}
	if err := n.emit(env); err != nil {
		return err
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return domain.ErrAckTimeout.WithDetails(dst.String()).WithCause(ctx.Err())
	}
}

// admit validates the hop limit and applies the send rate limit.
func (n *Node) admit(ttl uint8) error {
	if err := domain.ValidateTTL(int(ttl)); err != nil {
		return err
	}
	if !n.limiter.Allow() {
		return domain.ErrRateLimited
	}
	return nil
}

func (n *Node) originate(kind Kind, dst domain.MAC, payload []byte, ttl uint8, ref string) (string, error) {
	id, err := n.ids.next()
	if err != nil {
		return "", domain.ErrSendFailed.WithCause(err)
	}
	env := &Envelope{ID: id, Kind: kind, Src: n.addr, Dst: dst, TTL: ttl, Ref: ref, Payload: payload}
	return id, n.emit(env)
}

// emit records an originated envelope as seen and hands it to the transport.
func (n *Node) emit(env *Envelope) error {
	n.seen.Add(env.ID, struct{}{})
	if env.Dst == n.addr {
		n.deliver(env)
		if env.Kind == KindDataAckReq {
			n.resolve(env.ID)
		}
		n.sent.Add(1)
		return nil
	}
	if err := n.forward(env); err != nil {
		return err
	}
	n.sent.Add(1)
	return nil
}

// forward sends env to the destination when it is a direct neighbor and
// floods it to every neighbor otherwise.
func (n *Node) forward(env *Envelope) error {
	buf, err := encodeEnvelope(env)
	if err != nil {
		return domain.ErrSendFailed.WithCause(err)
	}

	targets := n.targets(env.Dst)
	if len(targets) == 0 {
		return domain.ErrNoRoute.WithDetails(env.Dst.String())
	}

	var errs []error
	for _, node := range targets {
		var err error
		if env.Kind == KindData {
			err = n.ml.SendBestEffort(node, buf)
		} else {
			err = n.ml.SendReliable(node, buf)
		}
		if err != nil {
			n.logger.Debug("send to peer failed", "peer", node.Name, "kind", env.Kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", node.Name, err))
		}
	}
	if len(errs) == len(targets) {
		return domain.ErrSendFailed.WithDetails(env.Dst.String()).WithCause(errors.Join(errs...))
	}
	return nil
}

func (n *Node) targets(dst domain.MAC) []*memberlist.Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !dst.IsBroadcast() {
		for _, p := range n.peers {
			if p.meta.Addr == dst {
				return []*memberlist.Node{p.node}
			}
		}
	}
	out := make([]*memberlist.Node, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, p.node)
	}
	return out
}

// handle processes one received envelope.
func (n *Node) handle(buf []byte) {
	env, err := decodeEnvelope(buf)
	if err != nil {
		n.metrics.RecordReceive(dispMalformed)
		n.logger.Debug("dropping malformed message", "error", err)
		return
	}
	n.received.Add(1)

	if n.seen.Contains(env.ID) {
		n.metrics.RecordReceive(dispDuplicate)
		return
	}
	n.seen.Add(env.ID, struct{}{})

	local := env.Dst == n.addr
	switch {
	case env.Kind == KindAck && local:
		n.resolve(env.Ref)
		n.metrics.RecordReceive(dispAcked)
		return
	case env.Kind != KindAck && (local || env.Dst.IsBroadcast()):
		n.deliver(env)
		n.metrics.RecordReceive(dispDelivered)
		if local {
			if env.Kind == KindDataAckReq {
				go n.acknowledge(env)
			}
			return
		}
	}

	if env.TTL <= 1 {
		n.metrics.RecordReceive(dispExpired)
		n.logger.Debug("message expired", "id", env.ID, "dst", env.Dst.String())
		return
	}
	relay := *env
	relay.TTL--
	n.relayed.Add(1)
	n.metrics.RecordReceive(dispRelayed)
	go func() {
		if err := n.forward(&relay); err != nil {
			n.logger.Debug("relay failed", "id", relay.ID, "error", err)
		}
	}()
}

func (n *Node) deliver(env *Envelope) {
	n.mu.Lock()
	fn := n.onMessage
	n.mu.Unlock()

	n.logger.Debug("message delivered", "id", env.ID, "src", env.Src.String(), "bytes", len(env.Payload))
	if fn != nil {
		fn(Message{
			ID:       env.ID,
			Src:      env.Src,
			Dst:      env.Dst,
			Payload:  env.Payload,
			Reliable: env.Kind == KindDataAckReq,
			TTL:      env.TTL,
		})
	}
}

func (n *Node) acknowledge(env *Envelope) {
	_, err := n.originate(KindAck, env.Src, nil, domain.TTLMax, env.ID)
	n.metrics.RecordSend(string(KindAck), err)
	if err != nil {
		n.logger.Warn("acknowledge failed", "id", env.ID, "dst", env.Src.String(), "error", err)
	}
}

func (n *Node) resolve(ref string) {
	n.mu.Lock()
	ch, ok := n.waiters[ref]
	if ok {
		delete(n.waiters, ref)
	}
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// SetRole changes the advertised role and pushes the new metadata to peers.
func (n *Node) SetRole(role domain.Role) error {
	n.mu.Lock()
	n.role = role
	n.mu.Unlock()

	if err := n.ml.UpdateNode(DefaultUpdateTimeout); err != nil {
		return fmt.Errorf("advertise role: %w", err)
	}
	n.logger.Info("role changed", "role", role)
	return nil
}

// SetDebug changes the process log level: off logs at info, on at debug,
// and verbose also forwards memberlist's own log output.
func (n *Node) SetDebug(mode domain.DebugMode) error {
	switch mode {
	case domain.DebugOff:
		logger.SetLevel("info")
	case domain.DebugOn, domain.DebugVerbose:
		logger.SetLevel("debug")
	default:
		return domain.ErrUnknownDebugMode.WithDetails(string(mode))
	}
	n.logWriter.SetMuted(mode != domain.DebugVerbose)

	n.mu.Lock()
	n.debug = mode
	n.mu.Unlock()
	n.logger.Info("debug mode changed", "mode", mode)
	return nil
}

// Ping probes every neighbor and returns the replies received before ctx
// is done, fastest first.
func (n *Node) Ping(ctx context.Context) ([]PingReply, error) {
	n.mu.Lock()
	peers := make([]peer, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	n.mu.Unlock()

	if len(peers) == 0 {
		return nil, domain.ErrNoResponse.WithDetails("no neighbors")
	}

	results := make(chan PingReply, len(peers))
	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p peer) {
			defer wg.Done()
			addr := &net.UDPAddr{IP: p.node.Addr, Port: int(p.node.Port)}
			rtt, err := n.ml.Ping(p.node.Name, addr)
			if err != nil {
				n.logger.Debug("ping failed", "peer", p.node.Name, "error", err)
				return
			}
			results <- PingReply{Addr: p.meta.Addr, NodeID: p.node.Name, RTT: rtt}
		}(p)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var replies []PingReply
collect:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			n.metrics.ObservePing(r.RTT)
			replies = append(replies, r)
		case <-ctx.Done():
			break collect
		}
	}

	if len(replies) == 0 {
		return nil, domain.ErrNoResponse
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].RTT < replies[j].RTT })
	return replies, nil
}

// Status returns a snapshot of the local node.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()

	return Status{
		NodeID:        n.cfg.NodeID,
		Addr:          n.addr,
		Role:          n.role,
		Debug:         n.debug,
		TransportLogs: !n.logWriter.Muted(),
		Neighbors:     len(n.peers),
		Sent:          n.sent.Load(),
		Received:      n.received.Load(),
		Relayed:       n.relayed.Load(),
		Uptime:        time.Since(n.started),
	}
}

// Shutdown leaves the cluster and stops the gossip listener.
func (n *Node) Shutdown() error {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return nil
	}
	n.shutdown = true
	n.mu.Unlock()

	if err := n.ml.Leave(DefaultLeaveTimeout); err != nil {
		n.logger.Warn("leave mesh failed", "error", err)
	}
	if err := n.ml.Shutdown(); err != nil {
		return fmt.Errorf("shutdown memberlist: %w", err)
	}
	n.logger.Info("mesh node stopped")
	return nil
}

func (n *Node) localMeta() []byte {
	n.mu.Lock()
	meta := nodeMeta{Addr: n.addr, Role: n.role}
	n.mu.Unlock()

	buf, err := json.Marshal(meta)
	if err != nil {
		n.logger.Error("encode node metadata", "error", err)
		return nil
	}
	return buf
}

// trackPeer records or refreshes a remote member.
func (n *Node) trackPeer(node *memberlist.Node) {
	if node.Name == n.cfg.NodeID {
		return
	}

	meta := nodeMeta{Addr: AddressFor(node.Name), Role: domain.RoleNode}
	if len(node.Meta) > 0 {
		if err := json.Unmarshal(node.Meta, &meta); err != nil {
			n.logger.Warn("peer metadata unreadable", "peer", node.Name, "error", err)
		}
	}
	cp := *node
	cp.Meta = append([]byte(nil), node.Meta...)

	n.mu.Lock()
	n.peers[node.Name] = peer{node: &cp, meta: meta}
	count := len(n.peers)
	n.mu.Unlock()
	n.metrics.SetNeighbors(count)
}

func (n *Node) dropPeer(node *memberlist.Node) {
	n.mu.Lock()
	delete(n.peers, node.Name)
	count := len(n.peers)
	n.mu.Unlock()
	n.metrics.SetNeighbors(count)
}

// delegate implements memberlist.Delegate.
type delegate struct {
	node *Node
}

// NodeMeta returns the local address and role.
func (d *delegate) NodeMeta(limit int) []byte {
	buf := d.node.localMeta()
	if len(buf) > limit {
		return nil
	}
	return buf
}

// NotifyMsg receives mesh envelopes.
func (d *delegate) NotifyMsg(buf []byte) {
	d.node.handle(buf)
}

func (d *delegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }

func (d *delegate) LocalState(join bool) []byte { return nil }

func (d *delegate) MergeRemoteState(buf []byte, join bool) {}

// eventDelegate implements memberlist.EventDelegate.
type eventDelegate struct {
	node *Node
}

// NotifyJoin is called when a node joins.
func (e *eventDelegate) NotifyJoin(node *memberlist.Node) {
	e.node.trackPeer(node)
	if node.Name != e.node.cfg.NodeID {
		e.node.logger.Info("neighbor joined", "peer", node.Name, "addr", node.Addr.String())
	}
}

// NotifyLeave is called when a node leaves.
func (e *eventDelegate) NotifyLeave(node *memberlist.Node) {
	e.node.dropPeer(node)
	e.node.logger.Info("neighbor left", "peer", node.Name)
}

// NotifyUpdate is called when a node's metadata changes.
func (e *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	e.node.trackPeer(node)
	e.node.logger.Debug("neighbor updated", "peer", node.Name)
}
